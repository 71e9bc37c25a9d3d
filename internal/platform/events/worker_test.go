package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hemolink/pkg/domain"
)

func TestWorker(t *testing.T) {
	t.Run("drains emitted events into the publisher", func(t *testing.T) {
		publisher := NewMemoryPublisher()
		worker := NewWorker(publisher, 16, nil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = worker.Run(ctx)
		}()

		requestID := domain.NewRequestID()
		worker.Emit(Event{Kind: KindRequestCreated, RequestID: requestID})
		worker.Emit(Event{Kind: KindNotificationsDispatched, RequestID: requestID, Count: 3})

		require.Eventually(t, func() bool {
			return len(publisher.Events()) == 2
		}, time.Second, 10*time.Millisecond)

		cancel()
		<-done

		events := publisher.Events()
		assert.Equal(t, KindRequestCreated, events[0].Kind)
		assert.Equal(t, KindNotificationsDispatched, events[1].Kind)
		assert.Equal(t, 3, events[1].Count)
	})

	t.Run("full inbox drops instead of blocking", func(t *testing.T) {
		publisher := NewMemoryPublisher()
		worker := NewWorker(publisher, 1, nil)

		// No Run loop consuming; the second emit must not block.
		finished := make(chan struct{})
		go func() {
			defer close(finished)
			worker.Emit(Event{Kind: KindRequestCreated})
			worker.Emit(Event{Kind: KindRequestCreated})
		}()

		select {
		case <-finished:
		case <-time.After(time.Second):
			t.Fatal("Emit blocked on a full inbox")
		}
	})

	t.Run("run stops on context cancellation", func(t *testing.T) {
		worker := NewWorker(NewMemoryPublisher(), 1, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := worker.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
