package www

import (
	"log"
	"net/http"

	"github.com/gorilla/sessions"

	"crmdash/session"
)

const (
	sessionName = "crmdash-session"
	viewerKey   = "viewer"
)

func newSessionStore(secret string) *sessions.CookieStore {
	if secret == "" {
		secret = "crmdash-default-secret-change-me"
	}
	s := sessions.NewCookieStore([]byte(secret))
	s.Options.HttpOnly = true
	s.Options.Secure = false
	s.Options.SameSite = http.SameSiteLaxMode
	return s
}

// lookupViewer returns the viewer named by the request cookie, or nil when
// the cookie is missing or the viewer is no longer known (logged out, swept,
// or from before a restart). It never registers anyone.
func (h *Handlers) lookupViewer(r *http.Request) *session.Viewer {
	id := h.viewerID(r)
	if id == "" {
		return nil
	}
	return h.engine.Viewers().Get(id)
}

// loginViewer returns the cookie's viewer, registering a new one and
// reissuing the cookie when there is none. Only POST /login calls it.
func (h *Handlers) loginViewer(w http.ResponseWriter, r *http.Request) *session.Viewer {
	sess, _ := h.sessions.Get(r, sessionName)
	id, _ := sess.Values[viewerKey].(string)

	v := h.engine.Viewers().Resolve(id)
	if v.ID != id {
		sess.Values[viewerKey] = v.ID
		if err := sess.Save(r, w); err != nil {
			log.Printf("auth: session save error: %v", err)
		}
	}
	return v
}

// forgetViewer clears the viewer ID from the cookie.
func (h *Handlers) forgetViewer(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.sessions.Get(r, sessionName)
	if _, ok := sess.Values[viewerKey]; !ok {
		return
	}
	delete(sess.Values, viewerKey)
	if err := sess.Save(r, w); err != nil {
		log.Printf("auth: session save error: %v", err)
	}
}

// viewerID reads the cookie without creating anything.
func (h *Handlers) viewerID(r *http.Request) string {
	sess, err := h.sessions.Get(r, sessionName)
	if err != nil {
		return ""
	}
	id, _ := sess.Values[viewerKey].(string)
	return id
}

// knownViewerID is viewerID restricted to registered viewers.
func (h *Handlers) knownViewerID(r *http.Request) string {
	if v := h.lookupViewer(r); v != nil {
		return v.ID
	}
	return ""
}
