package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"predpraznik_backend/platform/logger"
)

type pinged struct {
	BaseEvent
	N int
}

func (pinged) EventName() string { return "test.pinged" }

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	var total atomic.Int64
	for i := 0; i < 3; i++ {
		bus.Subscribe("test.pinged", HandlerFunc(func(_ context.Context, e Event) error {
			total.Add(int64(e.(pinged).N))
			return nil
		}))
	}

	bus.Publish(context.Background(), pinged{BaseEvent: NewBaseEvent(), N: 2})
	bus.Wait()

	if total.Load() != 6 {
		t.Fatalf("expected 6, got %d", total.Load())
	}
}

func TestPublishSurvivesHandlerPanic(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	var called atomic.Bool
	bus.Subscribe("test.pinged", HandlerFunc(func(context.Context, Event) error { panic("boom") }))
	bus.Subscribe("test.pinged", HandlerFunc(func(context.Context, Event) error {
		called.Store(true)
		return nil
	}))

	bus.Publish(context.Background(), pinged{})
	bus.Wait()

	if !called.Load() {
		t.Fatal("second handler should still run")
	}
}

func TestPublishSyncJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	first := errors.New("first")
	bus.Subscribe("test.pinged", HandlerFunc(func(context.Context, Event) error { return first }))
	bus.Subscribe("test.pinged", HandlerFunc(func(context.Context, Event) error { panic("second") }))

	err := bus.PublishSync(context.Background(), pinged{})
	if !errors.Is(err, first) {
		t.Fatalf("expected joined error to contain first, got %v", err)
	}

	if err := bus.PublishSync(context.Background(), unrelated{}); err != nil {
		t.Fatalf("event without subscribers should be a no-op, got %v", err)
	}
}

type unrelated struct{ BaseEvent }

func (unrelated) EventName() string { return "test.unrelated" }
