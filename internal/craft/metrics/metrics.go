package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the issuance pipeline.
type Metrics struct {
	PublishOutcomes *prometheus.CounterVec
	PublishDuration prometheus.Histogram
	Orphans         *prometheus.CounterVec
}

// New creates a new Metrics instance with all craft metrics registered.
func New() *Metrics {
	return &Metrics{
		PublishOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "owndrob_publish_total",
			Help: "Publish attempts by outcome and failing step",
		}, []string{"outcome", "step"}),
		PublishDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "owndrob_publish_duration_seconds",
			Help:    "End-to-end duration of Publish",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		Orphans: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "owndrob_publish_orphans_total",
			Help: "Object store resources left unreferenced by a failed publish",
		}, []string{"kind"}),
	}
}

// IncrementPublished records a committed publish.
func (m *Metrics) IncrementPublished() {
	if m == nil {
		return
	}
	m.PublishOutcomes.WithLabelValues("published", "").Inc()
}

// IncrementFailed records a publish that stopped at step.
func (m *Metrics) IncrementFailed(step string) {
	if m == nil {
		return
	}
	m.PublishOutcomes.WithLabelValues("failed", step).Inc()
}

// IncrementOrphan records an abandoned upload or group.
func (m *Metrics) IncrementOrphan(kind string) {
	if m == nil {
		return
	}
	m.Orphans.WithLabelValues(kind).Inc()
}

// ObservePublish records the duration of a Publish call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObservePublish(start time.Time) {
	if m == nil {
		return
	}
	m.PublishDuration.Observe(time.Since(start).Seconds())
}
