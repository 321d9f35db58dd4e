package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"crmdash/config"
	"crmdash/crm"
	"crmdash/dashboard"
	"crmdash/messaging"
	"crmdash/session"
	"crmdash/store"
)

type LogFunc func(format string, args ...any)

// Pinger is anything with a health probe, such as the redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Publisher sends fetch reports to the message bus. *messaging.Client
// satisfies it.
type Publisher interface {
	Enabled() bool
	Backend() string
	IsConnected() bool
	PublishEnvelope(topic string, env *messaging.Envelope) error
}

type Config struct {
	AppConfig *config.Config
	DB        *store.DB
	Source    dashboard.Source
	CRM       *crm.Service
	Cache     Pinger
	MsgClient Publisher
	LogFunc   LogFunc
}

type Engine struct {
	cfg       *config.Config
	db        *store.DB
	source    dashboard.Source
	crm       *crm.Service
	cache     Pinger
	msgClient Publisher
	viewers   *session.Registry
	Events    *EventBus
	logFn     LogFunc

	stopChan   chan struct{}
	stopOnce   sync.Once
	publishing sync.WaitGroup
}

func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	e := &Engine{
		cfg:       c.AppConfig,
		db:        c.DB,
		source:    c.Source,
		crm:       c.CRM,
		cache:     c.Cache,
		msgClient: c.MsgClient,
		Events:    NewEventBus(),
		logFn:     logFn,
		stopChan:  make(chan struct{}),
	}
	e.viewers = session.NewRegistry(e.mountDashboard)
	if e.crm != nil {
		e.crm.SetObserver(e)
	}
	return e
}

func (e *Engine) Start() {
	e.wireEventHandlers()
	if ttl := e.cfg.Web.ViewerIdleTTL; ttl > 0 {
		go e.sweepLoop(ttl)
	}
	e.logFn("engine: started")
}

// Stop ends the idle sweep and waits for queued publishes to finish.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopChan) })
	e.publishing.Wait()
	e.logFn("engine: stopped")
}

func (e *Engine) sweepLoop(ttl time.Duration) {
	interval := time.Minute
	if ttl < interval {
		interval = ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case now := <-ticker.C:
			e.SweepIdle(now)
		}
	}
}

// SweepIdle drops viewers idle longer than web.viewer_idle_ttl.
func (e *Engine) SweepIdle(now time.Time) int {
	removed := e.viewers.Sweep(e.cfg.Web.ViewerIdleTTL, now)
	for _, v := range removed {
		e.Events.Emit(Event{Type: EventViewerLoggedOut, Payload: ViewerEvent{ViewerID: v.ID}})
	}
	if len(removed) > 0 {
		e.logFn("engine: swept %d idle viewers", len(removed))
	}
	return len(removed)
}

// Accessors
func (e *Engine) AppConfig() *config.Config    { return e.cfg }
func (e *Engine) DB() *store.DB                { return e.db }
func (e *Engine) CRM() *crm.Service            { return e.crm }
func (e *Engine) Viewers() *session.Registry   { return e.viewers }
func (e *Engine) MsgClient() Publisher         { return e.msgClient }

// mountDashboard builds a fresh view for a viewer that just logged in and
// kicks off the automatic first fetch.
func (e *Engine) mountDashboard(viewerID string) *dashboard.View {
	view := dashboard.NewView(e.source, dashboard.Options{
		OnChange: func() {
			e.Events.Emit(Event{Type: EventViewChanged, Payload: ViewerEvent{ViewerID: viewerID}})
		},
		OnFetch: func(r dashboard.FetchResult) {
			typ := EventFetchCompleted
			if r.Err != nil {
				typ = EventFetchFailed
			}
			e.Events.Emit(Event{Type: typ, Payload: FetchEvent{ViewerID: viewerID, Result: r}})
		},
	})
	go e.fetch(viewerID, view)
	return view
}

// fetch runs one FetchData cycle detached from any request. Nothing cancels
// it; an error is only logged.
func (e *Engine) fetch(viewerID string, view *dashboard.View) {
	if err := view.FetchData(context.Background()); err != nil {
		e.logFn("engine: viewer %s fetch: %v", viewerID, err)
	}
}

// Login opens the viewer's gate, mounting the dashboard on first entry.
func (e *Engine) Login(v *session.Viewer) {
	v.Login()
	e.Events.Emit(Event{Type: EventViewerLoggedIn, Payload: ViewerEvent{ViewerID: v.ID}})
}

// Logout closes the viewer's gate, drops the dashboard state and forgets the
// viewer.
func (e *Engine) Logout(v *session.Viewer) {
	v.Logout()
	e.viewers.Remove(v.ID)
	e.Events.Emit(Event{Type: EventViewerLoggedOut, Payload: ViewerEvent{ViewerID: v.ID}})
}

// Refresh starts another fetch on the viewer's dashboard. Calls are not
// debounced; overlapping refreshes race. It reports false when the viewer
// has no mounted dashboard.
func (e *Engine) Refresh(v *session.Viewer) bool {
	view := v.Dashboard()
	if view == nil {
		return false
	}
	go e.fetch(v.ID, view)
	return true
}

// CRMPulled implements crm.PullObserver.
func (e *Engine) CRMPulled(orderCount int, started time.Time, err error) {
	e.Events.Emit(Event{Type: EventCRMPulled, Payload: CRMPullEvent{
		OrderCount: orderCount,
		Started:    started,
		Duration:   time.Since(started),
		Err:        err,
	}})
}

// Health reports the state of each optional component.
func (e *Engine) Health(ctx context.Context) map[string]any {
	h := map[string]any{
		"viewers":   e.viewers.Count(),
		"database":  "ok",
		"cache":     "disabled",
		"messaging": "disabled",
	}
	if e.db == nil {
		h["database"] = "disabled"
	} else if err := e.db.PingContext(ctx); err != nil {
		h["database"] = err.Error()
	} else if failed, err := e.db.CountFetches("", store.OutcomeFailed); err == nil {
		h["failed_fetches"] = failed
	}
	if e.cache != nil {
		if err := e.cache.Ping(ctx); err != nil {
			h["cache"] = err.Error()
		} else {
			h["cache"] = "ok"
		}
	}
	if e.msgClient != nil && e.msgClient.Enabled() {
		if e.msgClient.IsConnected() {
			h["messaging"] = e.msgClient.Backend() + " connected"
		} else {
			h["messaging"] = e.msgClient.Backend() + " disconnected"
		}
	}
	return h
}
