// Package ops provides a fire-and-forget audit publisher for operational
// events.
//
// Events pass a sampler and a circuit breaker before landing on a bounded
// channel drained by a background worker. When the channel is full, or the
// store is unhealthy, events are dropped. Operational visibility is best
// effort; it never slows the request path.
//
// Use for: registration_started, session_restored, token_rotated
package ops

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "onboard/pkg/platform/audit"
)

const defaultQueueSize = 1000

// Publisher emits operational events asynchronously.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	sampler *Sampler
	breaker *CircuitBreaker

	inbox    chan audit.OpsEvent
	stopOnce sync.Once
	done     chan struct{}
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithSampler overrides the default keep-everything sampler.
func WithSampler(s *Sampler) Option {
	return func(p *Publisher) {
		p.sampler = s
	}
}

// WithQueueSize bounds the in-flight event channel.
func WithQueueSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.inbox = make(chan audit.OpsEvent, n)
		}
	}
}

// New creates an ops publisher and starts its worker.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:   store,
		sampler: NewSampler(1.0),
		breaker: NewCircuitBreaker(5, time.Minute),
		inbox:   make(chan audit.OpsEvent, defaultQueueSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.run()
	return p
}

// Emit queues an operational event. Never blocks: sampled-out events, events
// arriving while the circuit is open, and events that find the queue full
// are all dropped.
func (p *Publisher) Emit(_ context.Context, event audit.OpsEvent) {
	if !p.sampler.ShouldSample(event.Action) {
		if p.metrics != nil {
			p.metrics.IncSampled()
		}
		return
	}
	if !p.breaker.Allow() {
		if p.metrics != nil {
			p.metrics.IncCircuitBreakerDropped()
		}
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case p.inbox <- event:
	default:
		if p.metrics != nil {
			p.metrics.IncCircuitBreakerDropped()
		}
	}
}

// Close stops the worker after draining queued events.
func (p *Publisher) Close() error {
	p.stopOnce.Do(func() { close(p.inbox) })
	<-p.done
	return nil
}

func (p *Publisher) run() {
	defer close(p.done)
	for event := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := p.store.Append(ctx, event.ToEvent())
		cancel()

		if err != nil {
			p.breaker.RecordFailure()
			if p.metrics != nil {
				p.metrics.IncPersistFailures()
				p.metrics.SetCircuitBreakerState(p.breaker.IsOpen())
			}
			if p.logger != nil {
				p.logger.Warn("ops audit persistence failed",
					"action", event.Action,
					"error", err,
				)
			}
			continue
		}

		p.breaker.RecordSuccess()
		if p.metrics != nil {
			p.metrics.IncTracked()
			p.metrics.SetCircuitBreakerState(false)
		}
	}
}
