package events

import (
	"context"
	"log/slog"
	"sync"
)

// Publisher is implemented by KafkaPublisher and by MemoryPublisher in
// tests.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Worker drains an event channel into a Publisher so the request path
// never blocks on the broker. Events are dropped, with a log line, if the
// inbox is full when emitted.
type Worker struct {
	publisher Publisher
	inbox     chan Event
	logger    *slog.Logger
}

func NewWorker(publisher Publisher, buffer int, logger *slog.Logger) *Worker {
	if buffer <= 0 {
		buffer = 256
	}
	return &Worker{
		publisher: publisher,
		inbox:     make(chan Event, buffer),
		logger:    logger,
	}
}

// Emit queues an event without blocking.
func (w *Worker) Emit(event Event) {
	select {
	case w.inbox <- event:
	default:
		if w.logger != nil {
			w.logger.Warn("event inbox full, dropping lifecycle event",
				"kind", string(event.Kind),
				"request_id", event.RequestID.String(),
			)
		}
	}
}

// Run consumes the inbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.publisher.Publish(ctx, event); err != nil && w.logger != nil {
				w.logger.Warn("failed to publish lifecycle event",
					"kind", string(event.Kind),
					"error", err.Error(),
				)
			}
		}
	}
}

// MemoryPublisher records events for assertions in tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a snapshot of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
