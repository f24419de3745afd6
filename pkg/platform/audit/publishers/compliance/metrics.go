package compliance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks audit persistence.
type Metrics struct {
	Persisted       prometheus.Counter
	PersistFailures prometheus.Counter
	PersistDuration prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		Persisted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "owndrob_audit_persisted_total",
			Help: "Audit events written to the audit store",
		}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "owndrob_audit_persist_failures_total",
			Help: "Audit events that could not be written to the audit store",
		}),
		PersistDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "owndrob_audit_persist_duration_seconds",
			Help:    "Audit store write latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}

func (m *Metrics) ObservePersist(seconds float64) {
	if m == nil {
		return
	}
	m.Persisted.Inc()
	m.PersistDuration.Observe(seconds)
}

func (m *Metrics) IncPersistFailures() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}
