package www

import (
	"net/http"

	"crmdash/dashboard"
	"crmdash/session"
)

// handleIndex is the session gate: the login page or the dashboard.
func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	var view *dashboard.View
	if v := h.lookupViewer(r); v != nil && v.Page() == session.PageDashboard {
		view = v.Dashboard()
	}
	if view == nil {
		h.render(w, "login.html", map[string]any{"Page": "login"})
		return
	}

	snap := view.Snapshot()
	data := map[string]any{
		"Page":      "dashboard",
		"ActiveTab": snap.ActiveTab,
		"Orders":    snap.OrdersBranch(),
		"Analytics": snap.AnalyticsBranch(),
		"Loading":   snap.Loading,
	}
	h.render(w, "dashboard.html", data)
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	h.engine.Login(h.loginViewer(w, r))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if v := h.lookupViewer(r); v != nil {
		h.engine.Logout(v)
	}
	h.forgetViewer(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if v := h.lookupViewer(r); v != nil {
		h.engine.Refresh(v)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) handleTab(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tab, err := dashboard.ParseTab(r.FormValue("tab"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if v := h.lookupViewer(r); v != nil {
		if view := v.Dashboard(); view != nil {
			view.SelectTab(tab)
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
