package session

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for session lifecycle monitoring.
type Metrics struct {
	SessionsCreated      prometheus.Counter
	SessionsValidated    *prometheus.CounterVec
	SessionsInvalidated  *prometheus.CounterVec
	SessionsEvicted      prometheus.Counter
	SessionsCleaned      prometheus.Counter
	LegacyTokensAccepted prometheus.Counter
}

// NewMetrics creates the session lifecycle metrics. Callers register them
// with a Prometheus registry; tests use them unregistered.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_sessions_created_total",
				Help: "Total number of sessions created",
			},
		),
		SessionsValidated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_sessions_validated_total",
				Help: "Total number of session validation attempts",
			},
			[]string{"result"},
		),
		SessionsInvalidated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_sessions_invalidated_total",
				Help: "Total number of sessions invalidated",
			},
			[]string{"scope"},
		),
		SessionsEvicted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_sessions_evicted_total",
				Help: "Total number of sessions evicted by the per-user ceiling",
			},
		),
		SessionsCleaned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_sessions_cleaned_total",
				Help: "Total number of expired or inactive session rows hard-deleted",
			},
		),
		LegacyTokensAccepted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_legacy_tokens_accepted_total",
				Help: "Total number of legacy tokens without a session id accepted",
			},
		),
	}
}

// MustRegister registers all session metrics with the default registry.
func (m *Metrics) MustRegister() {
	prometheus.MustRegister(
		m.SessionsCreated,
		m.SessionsValidated,
		m.SessionsInvalidated,
		m.SessionsEvicted,
		m.SessionsCleaned,
		m.LegacyTokensAccepted,
	)
}
