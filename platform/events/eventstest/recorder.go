// Package eventstest provides a synchronous recording bus for tests.
package eventstest

import (
	"context"
	"sync"

	"predpraznik_backend/platform/events"
)

// Recorder captures published events instead of dispatching them.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

var _ events.Bus = (*Recorder)(nil)

func (r *Recorder) Publish(_ context.Context, event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) PublishSync(ctx context.Context, event events.Event) error {
	r.Publish(ctx, event)
	return nil
}

func (r *Recorder) Subscribe(string, events.Handler) {}

// Names returns the names of recorded events in publish order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.events))
	for _, e := range r.events {
		names = append(names, e.EventName())
	}
	return names
}

// Events returns a copy of everything recorded.
func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}
