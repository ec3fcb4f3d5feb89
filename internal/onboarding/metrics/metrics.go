// Package metrics holds the Prometheus instruments for the onboarding module.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all onboarding-related Prometheus metrics.
type Metrics struct {
	RegistrationsStarted   prometheus.Counter
	RegistrationsCompleted prometheus.Counter
	StepTransitions        *prometheus.CounterVec
	GuardRejections        *prometheus.CounterVec
	SessionsRestored       *prometheus.CounterVec
	SessionsExpired        prometheus.Counter
	ResolverCalls          *prometheus.CounterVec
	ResolverLatency        *prometheus.HistogramVec
}

// New creates and registers all onboarding metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RegistrationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onboard_registrations_started_total",
			Help: "Total number of registration attempts started",
		}),
		RegistrationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onboard_registrations_completed_total",
			Help: "Total number of registration attempts that reached COMPLETED",
		}),
		StepTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_step_transitions_total",
			Help: "Step transitions applied, labeled by target step",
		}, []string{"step"}),
		GuardRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_guard_rejections_total",
			Help: "Transitions denied by the navigation guard, labeled by target step",
		}, []string{"step"}),
		SessionsRestored: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_sessions_restored_total",
			Help: "Session restoration attempts, labeled by outcome",
		}, []string{"outcome"}),
		SessionsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onboard_sessions_expired_total",
			Help: "Sessions cleared because the platform API reported them expired",
		}),
		ResolverCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "onboard_resolver_calls_total",
			Help: "Platform API calls, labeled by call and outcome",
		}, []string{"call", "outcome"}),
		ResolverLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "onboard_resolver_call_duration_seconds",
			Help:    "Latency of platform API calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"call"}),
	}
}

// ObserveResolverCall records one platform API call.
func (m *Metrics) ObserveResolverCall(call, outcome string, seconds float64) {
	m.ResolverCalls.WithLabelValues(call, outcome).Inc()
	m.ResolverLatency.WithLabelValues(call).Observe(seconds)
}

// RecordTransition records an applied step transition.
func (m *Metrics) RecordTransition(step string) {
	m.StepTransitions.WithLabelValues(step).Inc()
}

// RecordGuardRejection records a transition denied by the guard.
func (m *Metrics) RecordGuardRejection(step string) {
	m.GuardRejections.WithLabelValues(step).Inc()
}

// RecordRestore records a restoration attempt outcome.
func (m *Metrics) RecordRestore(outcome string) {
	m.SessionsRestored.WithLabelValues(outcome).Inc()
}
