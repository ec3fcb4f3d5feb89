// Package security provides a buffered, fail-open audit publisher for
// security events.
//
// Events are queued in a bounded ring buffer and flushed to the store in
// batches by a background loop. Under pressure the oldest events are dropped
// rather than blocking the request path: security telemetry must never take
// the onboarding flow down with it.
//
// Use for: step_rejected, session_expired
package security

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "onboard/pkg/platform/audit"
)

const (
	defaultCapacity      = 10000
	defaultFlushInterval = time.Second
	defaultBatchSize     = 100
)

// Publisher buffers security events and persists them asynchronously.
type Publisher struct {
	store  audit.Store
	buffer *ringBuffer
	logger *slog.Logger

	flushInterval time.Duration
	batchSize     int

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for flush failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithCapacity bounds the in-memory buffer.
func WithCapacity(n int) Option {
	return func(p *Publisher) {
		p.buffer = newRingBuffer(n)
	}
}

// WithFlushInterval sets how often the background loop drains the buffer.
func WithFlushInterval(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.flushInterval = d
		}
	}
}

// New creates a security publisher and starts its flush loop.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:         store,
		buffer:        newRingBuffer(defaultCapacity),
		flushInterval: defaultFlushInterval,
		batchSize:     defaultBatchSize,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.run()
	return p
}

// Emit queues a security event. Never blocks; when the buffer is full the
// oldest event is dropped to make room.
func (p *Publisher) Emit(_ context.Context, event audit.SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Severity == "" {
		event.Severity = audit.SeverityInfo
	}
	p.buffer.Enqueue(event)
}

// Dropped reports how many events were lost to buffer pressure.
func (p *Publisher) Dropped() int64 {
	return p.buffer.Dropped()
}

// Close stops the flush loop after draining whatever is buffered.
func (p *Publisher) Close() error {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
	return nil
}

func (p *Publisher) run() {
	defer close(p.done)
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			p.flush()
			return
		case <-ticker.C:
			p.flush()
		}
	}
}

func (p *Publisher) flush() {
	for {
		batch := p.buffer.DequeueBatch(p.batchSize)
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		for _, event := range batch {
			if err := p.store.Append(ctx, event.ToEvent()); err != nil {
				if p.logger != nil {
					p.logger.Error("security audit flush failed",
						"action", event.Action,
						"error", err,
					)
				}
			}
		}
		cancel()
	}
}
