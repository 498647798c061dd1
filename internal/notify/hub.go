// Package notify is the in-process notification relay: fire-and-forget,
// at-most-once fan-out of processing updates to subscribed viewers. Messages
// sent while nobody listens are dropped.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oivindh/raceday/internal/metrics"
)

// Message is one processing update scoped to an event.
type Message struct {
	EventID uuid.UUID `json:"eventId"`
	Kind    string    `json:"kind"`
	Payload any       `json:"payload,omitempty"`
	SentAt  time.Time `json:"sentAt"`
}

// Update kinds emitted by the handlers.
const (
	KindLifecycle    = "lifecycle"
	KindRegistration = "registration"
	KindCheckIn      = "checkin"
	KindInspection   = "inspection"
	KindWeight       = "weight"
)

type subscriber struct {
	eventID uuid.UUID
	ch      chan Message
}

// Hub fans messages out to per-event subscribers. A full subscriber buffer
// drops the message for that subscriber rather than blocking the publisher.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Subscribe registers a listener for one event's updates. The returned
// cancel func must be called when the listener goes away.
func (h *Hub) Subscribe(eventID uuid.UUID) (<-chan Message, func()) {
	sub := &subscriber{eventID: eventID, ch: make(chan Message, 16)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	metrics.SSESubscribers.Inc()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[sub]; ok {
			delete(h.subs, sub)
			close(sub.ch)
			metrics.SSESubscribers.Dec()
		}
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish delivers to current subscribers of the event, if any.
func (h *Hub) Publish(eventID uuid.UUID, kind string, payload any) {
	msg := Message{EventID: eventID, Kind: kind, Payload: payload, SentAt: time.Now()}

	h.mu.Lock()
	defer h.mu.Unlock()
	delivered := false
	for sub := range h.subs {
		if sub.eventID != eventID {
			continue
		}
		select {
		case sub.ch <- msg:
			delivered = true
		default:
			metrics.DroppedNotifications.Inc()
		}
	}
	if !delivered {
		metrics.DroppedNotifications.Inc()
	}
}
