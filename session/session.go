package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"crmdash/dashboard"
)

type Page string

const (
	PageLogin     Page = "login"
	PageDashboard Page = "dashboard"
)

// Gate is the in-memory login toggle. Login always succeeds; there are no
// credentials to check.
type Gate struct {
	loggedIn bool
}

func (g *Gate) Login()         { g.loggedIn = true }
func (g *Gate) Logout()        { g.loggedIn = false }
func (g *Gate) LoggedIn() bool { return g.loggedIn }

// Page is the view the gate currently lets through.
func (g *Gate) Page() Page {
	if g.loggedIn {
		return PageDashboard
	}
	return PageLogin
}

// MountFunc builds the dashboard view for a viewer that just logged in.
type MountFunc func(viewerID string) *dashboard.View

// Viewer is one browser's gate plus, while logged in, its mounted dashboard.
type Viewer struct {
	ID string

	mount    MountFunc
	mu       sync.Mutex
	gate     Gate
	view     *dashboard.View
	lastSeen time.Time
}

func (v *Viewer) touch(now time.Time) {
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
}

func (v *Viewer) idleSince(now time.Time) time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return now.Sub(v.lastSeen)
}

// Login opens the gate. A fresh dashboard is mounted only on the
// logged-out to logged-in transition; repeated logins keep the current one.
func (v *Viewer) Login() *dashboard.View {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gate.LoggedIn() && v.view != nil {
		return v.view
	}
	v.gate.Login()
	v.view = v.mount(v.ID)
	return v.view
}

// Logout closes the gate and unmounts the dashboard, discarding its state.
// Requests already in flight finish against the detached view.
func (v *Viewer) Logout() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gate.Logout()
	v.view = nil
}

func (v *Viewer) Page() Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gate.Page()
}

// Dashboard returns the mounted view, or nil when logged out.
func (v *Viewer) Dashboard() *dashboard.View {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.view
}

// Registry holds every viewer in process memory. Nothing is persisted.
// Viewers leave it on logout or when swept for being idle.
type Registry struct {
	mount   MountFunc
	mu      sync.RWMutex
	viewers map[string]*Viewer
}

func NewRegistry(mount MountFunc) *Registry {
	return &Registry{
		mount:   mount,
		viewers: make(map[string]*Viewer),
	}
}

// Get returns the viewer for id, or nil if unknown. A hit counts as activity.
func (r *Registry) Get(id string) *Viewer {
	r.mu.RLock()
	v := r.viewers[id]
	r.mu.RUnlock()
	if v != nil {
		v.touch(time.Now())
	}
	return v
}

// Create registers a new logged-out viewer with a random ID.
func (r *Registry) Create() *Viewer {
	v := &Viewer{ID: uuid.NewString(), mount: r.mount, lastSeen: time.Now()}
	r.mu.Lock()
	r.viewers[v.ID] = v
	r.mu.Unlock()
	return v
}

// Resolve returns the viewer for id, creating a new one when id is empty or
// no longer known (for example after a restart).
func (r *Registry) Resolve(id string) *Viewer {
	if id != "" {
		if v := r.Get(id); v != nil {
			return v
		}
	}
	return r.Create()
}

// Remove forgets the viewer with id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.viewers, id)
	r.mu.Unlock()
}

// Sweep removes every viewer idle for longer than maxIdle at now and returns
// them. Their dashboards are unmounted.
func (r *Registry) Sweep(maxIdle time.Duration, now time.Time) []*Viewer {
	r.mu.Lock()
	var removed []*Viewer
	for id, v := range r.viewers {
		if v.idleSince(now) > maxIdle {
			delete(r.viewers, id)
			removed = append(removed, v)
		}
	}
	r.mu.Unlock()
	for _, v := range removed {
		v.Logout()
	}
	return removed
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.viewers)
}
