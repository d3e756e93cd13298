package events

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	defaultBufferSize = 256
	sinkTimeout       = 5 * time.Second
)

// Dispatcher decouples publishers from event delivery. Publish never blocks: events are queued
// into a bounded buffer and a single worker fans each one out to every sink in order.
type Dispatcher struct {
	queue  chan OrderEvent
	sinks  []Sink
	logger *zap.Logger
	clock  func() time.Time

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	start  sync.Once
}

func NewDispatcher(bufferSize int, logger *zap.Logger, sinks ...Sink) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		queue:  make(chan OrderEvent, bufferSize),
		sinks:  sinks,
		logger: logger,
		clock:  time.Now,
		done:   make(chan struct{}),
	}
}

// Start launches the delivery worker. Calling it more than once is a no-op.
func (d *Dispatcher) Start() {
	d.start.Do(func() {
		go d.run()
	})
}

// Publish enqueues the event and reports whether it was accepted.
// A full buffer or a closed dispatcher drops the event.
func (d *Dispatcher) Publish(_ context.Context, event OrderEvent) bool {
	if event.ID == "" {
		event.ID = ulid.Make().String()
	}
	if event.At.IsZero() {
		event.At = d.clock().UTC()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("event dropped, dispatcher closed", zap.String("event_type", event.Type), zap.String("invoice_id", event.InvoiceID))
		return false
	}

	select {
	case d.queue <- event:
		return true
	default:
		d.logger.Warn("event dropped, buffer full", zap.String("event_type", event.Type), zap.String("invoice_id", event.InvoiceID))
		return false
	}
}

// Close stops accepting events and waits for queued ones to drain or ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	d.Start()
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		for _, sink := range d.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			if err := sink.Send(ctx, event); err != nil {
				d.logger.Error("event delivery failed",
					zap.String("sink", sink.Name()),
					zap.String("event_id", event.ID),
					zap.String("event_type", event.Type),
					zap.Error(err))
			}
			cancel()
		}
	}
}
