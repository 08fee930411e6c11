// Package events publishes todo lifecycle events.
package events

import (
	"context"
	"sync"
	"time"
)

// Source is the EventBridge source of every event this service emits.
const Source = "todo-backend"

// Event types.
const (
	TodoCreated      = "TodoCreated"
	TodoDeleted      = "TodoDeleted"
	AttachmentAdded  = "AttachmentAdded"
	ThumbnailCreated = "ThumbnailCreated"
)

// Event is a single lifecycle notification.
type Event struct {
	Type       string    `json:"eventType"`
	TodoID     string    `json:"todoId"`
	UserID     string    `json:"userId,omitempty"`
	Key        string    `json:"key,omitempty"`
	URL        string    `json:"url,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// New stamps an event with the current time.
func New(eventType, todoID string) Event {
	return Event{Type: eventType, TodoID: todoID, OccurredAt: time.Now().UTC()}
}

// Publisher delivers events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// NopPublisher drops every event. Used when no event bus is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, events ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, events...)
	return nil
}

// Types returns the type of every recorded event in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
