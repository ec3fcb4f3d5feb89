package ops

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes counters for the lossy ops pipeline. Because this publisher
// drops events on purpose (sampling, open breaker, full queue), the drop
// counters are the primary signal that tuning is off.
type Metrics struct {
	Tracked               prometheus.Counter
	Sampled               prometheus.Counter
	CircuitBreakerDropped prometheus.Counter
	PersistFailures       prometheus.Counter
	CircuitBreakerState   prometheus.Gauge
}

// NewMetrics registers the ops audit metrics with the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Tracked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onboard_audit_ops_tracked_total",
			Help: "Operational audit events persisted",
		}),
		Sampled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onboard_audit_ops_sampled_total",
			Help: "Operational audit events dropped by the sampler",
		}),
		CircuitBreakerDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onboard_audit_ops_circuit_breaker_dropped_total",
			Help: "Operational audit events shed while the breaker was open",
		}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onboard_audit_ops_persist_failures_total",
			Help: "Failed writes of operational audit events",
		}),
		CircuitBreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "onboard_audit_ops_circuit_breaker_state",
			Help: "Audit store breaker state (0 closed, 1 open)",
		}),
	}
}

func (m *Metrics) IncTracked() { m.Tracked.Inc() }

func (m *Metrics) IncSampled() { m.Sampled.Inc() }

func (m *Metrics) IncCircuitBreakerDropped() { m.CircuitBreakerDropped.Inc() }

func (m *Metrics) IncPersistFailures() { m.PersistFailures.Inc() }

// SetCircuitBreakerState records whether the breaker is currently open.
func (m *Metrics) SetCircuitBreakerState(open bool) {
	if open {
		m.CircuitBreakerState.Set(1)
		return
	}
	m.CircuitBreakerState.Set(0)
}
