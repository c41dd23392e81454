// Package notify fans out domain events to subscribed observers.
// Delivery is best-effort and at-most-once: publishing never blocks the
// originating request, and a failing subscriber never surfaces an error
// to the caller.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event is a JSON-serializable state-change notification.
type Event struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Event types emitted by the usecases.
const (
	EventOrderCreated       = "order_created"
	EventOrderReleased      = "order_released"
	EventOrderCompleted     = "order_completed"
	EventOrderChanged       = "order_changed"
	EventConfirmationPosted = "confirmation"
	EventGoodsIssue         = "goods_issue"
	EventGoodsReceipt       = "goods_receipt"
	EventMRPRunCompleted    = "mrp_run_completed"
	EventPlannedConverted   = "planned_order_converted"
	EventMaterialCreated    = "material_created"
)

// NewEvent builds a timestamped event.
func NewEvent(eventType string, data map[string]any) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()}
}

// Subscriber receives events from the hub. Deliver errors cause the
// subscriber to be dropped.
type Subscriber interface {
	ID() string
	Deliver(ctx context.Context, event Event) error
}

// Hub decouples event production from delivery. Publish enqueues into a
// buffered channel consumed by a single dispatcher goroutine; when the
// buffer is full the event is dropped rather than blocking the request.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]Subscriber
	events chan Event
	done   chan struct{}
	logger *slog.Logger
}

// NewHub creates a hub with the given event buffer size.
func NewHub(logger *slog.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 256
	}
	return &Hub{
		subs:   make(map[string]Subscriber),
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run consumes the event queue until ctx is cancelled. Call it in its
// own goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-h.events:
			h.dispatch(ctx, event)
		}
	}
}

// Publish enqueues the event without blocking. Overflow drops the event.
func (h *Hub) Publish(event Event) {
	select {
	case h.events <- event:
	default:
		h.logger.Warn("event queue full, dropping event", "type", event.Type)
	}
}

// Subscribe registers a subscriber, replacing any with the same ID.
func (h *Hub) Subscribe(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub.ID()] = sub
	h.logger.Info("subscriber registered", "subscriber", sub.ID())
}

// Unsubscribe removes a subscriber by ID.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
	h.logger.Info("subscriber removed", "subscriber", id)
}

// SubscriberCount reports the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) dispatch(ctx context.Context, event Event) {
	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.Deliver(ctx, event); err != nil {
			h.logger.Warn("delivery failed, dropping subscriber",
				"subscriber", sub.ID(), "type", event.Type, "error", err)
			h.Unsubscribe(sub.ID())
		}
	}
}
