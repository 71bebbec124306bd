package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_Publish(t *testing.T) {
	t.Run("should call handlers in subscription order", func(t *testing.T) {
		bus := NewEventBus()
		var calls []int
		bus.Subscribe("test", func(Event) error { calls = append(calls, 1); return nil })
		bus.Subscribe("test", func(Event) error { calls = append(calls, 2); return nil })
		bus.Subscribe("test", func(Event) error { calls = append(calls, 3); return nil })

		err := bus.Publish(NewEvent(context.Background(), "test", nil))

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, calls)
	})

	t.Run("should continue after failing and panicking handlers", func(t *testing.T) {
		bus := NewEventBus()
		called := false
		bus.Subscribe("test", func(Event) error { return errors.New("boom") })
		bus.Subscribe("test", func(Event) error { panic("kaboom") })
		bus.Subscribe("test", func(Event) error { called = true; return nil })

		err := bus.Publish(NewEvent(context.Background(), "test", nil))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "2 handler(s) failed")
		assert.True(t, called)
	})

	t.Run("should not publish with cancelled context", func(t *testing.T) {
		bus := NewEventBus()
		called := false
		bus.Subscribe("test", func(Event) error { called = true; return nil })
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := bus.Publish(NewEvent(ctx, "test", nil))

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("should stop calling unsubscribed handler", func(t *testing.T) {
		bus := NewEventBus()
		count := 0
		unsubscribe := bus.Subscribe("test", func(Event) error { count++; return nil })

		_ = bus.Publish(NewEvent(context.Background(), "test", nil))
		unsubscribe()
		_ = bus.Publish(NewEvent(context.Background(), "test", nil))

		assert.Equal(t, 1, count)
	})
}

func TestSubscribeTyped(t *testing.T) {
	bus := NewEventBus()
	var received []RecurringProcessedSummary
	SubscribeTyped(bus, RecurringProcessed, func(e EventT[RecurringProcessedSummary]) error {
		received = append(received, e.Data)
		return nil
	})

	payload := RecurringProcessedSummary{UserId: 1, Count: 2, TotalAmount: decimal.NewFromInt(300)}
	require.NoError(t, bus.Publish(NewEvent(context.Background(), RecurringProcessed, payload)))
	require.NoError(t, bus.Publish(NewEvent(context.Background(), RecurringProcessed, "wrong payload")))

	require.Len(t, received, 1)
	assert.Equal(t, 2, received[0].Count)
}
