package www

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"crmdash/engine"
)

type SSEEvent struct {
	Event string
	Data  string
}

// targeted is an event bound for one viewer's browsers. An empty viewer
// reaches every client.
type targeted struct {
	viewerID string
	evt      SSEEvent
}

// EventHub fans server events out to open /events streams. Each client is
// tagged with the viewer it belongs to.
type EventHub struct {
	mu       sync.RWMutex
	clients  map[chan SSEEvent]string
	outbox   chan targeted
	stopChan chan struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{
		clients:  make(map[chan SSEEvent]string),
		outbox:   make(chan targeted, 256),
		stopChan: make(chan struct{}),
	}
}

func (h *EventHub) Start() {
	go h.run()
}

func (h *EventHub) Stop() {
	select {
	case h.stopChan <- struct{}{}:
	default:
	}
}

func (h *EventHub) run() {
	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-h.stopChan:
			return
		case t := <-h.outbox:
			h.mu.RLock()
			for ch, viewer := range h.clients {
				if t.viewerID != "" && t.viewerID != viewer {
					continue
				}
				select {
				case ch <- t.evt:
				default:
					// drop if full
				}
			}
			h.mu.RUnlock()
		case <-keepalive.C:
			h.mu.RLock()
			for ch := range h.clients {
				select {
				case ch <- SSEEvent{Event: "keepalive", Data: "ping"}:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *EventHub) Broadcast(event, data string) {
	h.SendTo("", event, data)
}

// SendTo queues an event for the browsers of a single viewer.
func (h *EventHub) SendTo(viewerID, event, data string) {
	select {
	case h.outbox <- targeted{viewerID: viewerID, evt: SSEEvent{Event: event, Data: data}}:
	default:
	}
}

func (h *EventHub) AddClient(viewerID string) chan SSEEvent {
	ch := make(chan SSEEvent, 64)
	h.mu.Lock()
	h.clients[ch] = viewerID
	h.mu.Unlock()
	return ch
}

func (h *EventHub) RemoveClient(ch chan SSEEvent) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SetupEngineListeners wires engine events to SSE pushes.
func (h *EventHub) SetupEngineListeners(eng *engine.Engine) {
	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.ViewerEvent)
		h.SendTo(ev.ViewerID, "dashboard-update", `{"type":"changed"}`)
	}, engine.EventViewChanged)

	eng.Events.SubscribeTypes(func(evt engine.Event) {
		ev := evt.Payload.(engine.ViewerEvent)
		h.SendTo(ev.ViewerID, "dashboard-update", `{"type":"logged_out"}`)
	}, engine.EventViewerLoggedOut)
}

// SSEHandler returns the /events endpoint. Streams are scoped to the viewer
// named by the request cookie.
func (h *EventHub) SSEHandler(viewerOf func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}
		viewerID := viewerOf(r)
		if viewerID == "" {
			http.Error(w, "no session", http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		ch := h.AddClient(viewerID)
		defer h.RemoveClient(ch)

		for {
			select {
			case <-r.Context().Done():
				return
			case evt := <-ch:
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Event, evt.Data); err != nil {
					log.Printf("sse: write error: %v", err)
					return
				}
				flusher.Flush()
			}
		}
	}
}
