package www

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"crmdash/orders"
)

// apiOrders serves the order backend the dashboard reads from.
func (h *Handlers) apiOrders(w http.ResponseWriter, r *http.Request) {
	svc := h.engine.CRM()
	if svc == nil {
		h.jsonDetail(w, "crm is not configured")
		return
	}
	list, err := svc.Orders(r.Context())
	if err != nil {
		log.Printf("api: orders: %v", err)
		h.jsonDetail(w, err.Error())
		return
	}
	h.jsonOK(w, orders.ListResponse{Orders: list})
}

func (h *Handlers) apiSummary(w http.ResponseWriter, r *http.Request) {
	svc := h.engine.CRM()
	if svc == nil {
		h.jsonDetail(w, "crm is not configured")
		return
	}
	sum, err := svc.Summary(r.Context())
	if err != nil {
		log.Printf("api: summary: %v", err)
		h.jsonDetail(w, err.Error())
		return
	}
	h.jsonOK(w, sum)
}

func (h *Handlers) apiHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.engine.Health(r.Context())
	status["status"] = "ok"
	status["sse_clients"] = h.eventHub.ClientCount()
	h.jsonOK(w, status)
}

func (h *Handlers) apiFetchLog(w http.ResponseWriter, r *http.Request) {
	if h.engine.DB() == nil {
		h.jsonError(w, "database is not configured", http.StatusServiceUnavailable)
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := h.engine.DB().ListFetches(limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, entries)
}

func (h *Handlers) jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// jsonDetail is the order backend's failure shape: 500 with {"detail": msg}.
func (h *Handlers) jsonDetail(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}
