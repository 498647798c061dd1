package notify

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// keepAliveInterval paces SSE comments so proxies keep idle streams open.
const keepAliveInterval = 25 * time.Second

// SSEHandler streams one event's updates as text/event-stream until the
// client disconnects.
func (h *Hub) SSEHandler(eventID uuid.UUID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		ch, cancel := h.Subscribe(eventID)
		defer cancel()

		if _, err := w.Write([]byte(": connected\n\n")); err != nil {
			return
		}
		flusher.Flush()

		keepAlive := time.NewTicker(keepAliveInterval)
		defer keepAlive.Stop()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				if _, err := w.Write([]byte(": keep-alive\n\n")); err != nil {
					return
				}
				flusher.Flush()
			case msg, open := <-ch:
				if !open {
					return
				}
				payload, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				if _, err := w.Write([]byte("event: " + msg.Kind + "\n")); err != nil {
					return
				}
				if _, err := w.Write([]byte("data: ")); err != nil {
					return
				}
				if _, err := w.Write(payload); err != nil {
					return
				}
				if _, err := w.Write([]byte("\n\n")); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
