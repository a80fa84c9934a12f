package audit

import (
	"context"
	"log/slog"

	"landgrid/pkg/requestcontext"
)

// Store is any sink that accepts audit events: the in-memory store, the
// postgres store, or the Kafka stream sink.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher fans audit events out to every configured sink. Sink failures
// are logged, never propagated; the event surface must not block or fail a
// committed state transition.
type Publisher struct {
	stores []Store
	logger *slog.Logger
	inbox  chan Event
}

type Option func(p *Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithAsyncBuffer makes Emit enqueue instead of writing synchronously. A
// Worker must drain the publisher's Inbox.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Event, size)
	}
}

// NewPublisher constructs a Publisher over the given sinks.
func NewPublisher(stores []Store, opts ...Option) *Publisher {
	p := &Publisher{stores: stores, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit records one event. The timestamp and request id default from context
// when unset.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if p.inbox != nil {
		select {
		case p.inbox <- event:
		default:
			p.logger.WarnContext(ctx, "audit buffer full, dropping event",
				"event_type", event.Type,
				"request_id", event.RequestID,
			)
		}
		return
	}
	p.append(ctx, event)
}

func (p *Publisher) append(ctx context.Context, event Event) {
	for _, store := range p.stores {
		if err := store.Append(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "failed to append audit event",
				"error", err,
				"event_type", event.Type,
				"request_id", event.RequestID,
			)
		}
	}
}

// Inbox exposes the async queue for the Worker. Nil in synchronous mode.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}

// Worker drains an async publisher's inbox into its sinks.
type Worker struct {
	publisher *Publisher
}

func NewWorker(publisher *Publisher) *Worker {
	return &Worker{publisher: publisher}
}

// Run consumes events until ctx is cancelled, then drains what is queued.
func (w *Worker) Run(ctx context.Context) error {
	inbox := w.publisher.Inbox()
	if inbox == nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case event := <-inbox:
					w.publisher.append(context.WithoutCancel(ctx), event)
				default:
					return ctx.Err()
				}
			}
		case event := <-inbox:
			w.publisher.append(ctx, event)
		}
	}
}
