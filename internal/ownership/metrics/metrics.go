package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for admission control and mirroring.
type Metrics struct {
	ClaimOutcomes  *prometheus.CounterVec
	ClaimDuration  prometheus.Histogram
	MirrorOutcomes *prometheus.CounterVec
	MirrorBacklog  prometheus.Gauge
}

// New creates a new Metrics instance with all ownership metrics registered.
func New() *Metrics {
	return &Metrics{
		ClaimOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "owndrob_claims_total",
			Help: "Claim attempts by outcome and denial reason",
		}, []string{"outcome", "reason"}),
		ClaimDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "owndrob_claim_duration_seconds",
			Help:    "End-to-end duration of Claim",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}),
		MirrorOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "owndrob_ownership_mirror_total",
			Help: "Ownership record mirror attempts by source and outcome",
		}, []string{"source", "outcome"}),
		MirrorBacklog: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "owndrob_ownership_mirror_backlog",
			Help: "Claims seen without mirror handles in the last reconcile pass",
		}),
	}
}

func (m *Metrics) IncrementAdmitted() {
	if m == nil {
		return
	}
	m.ClaimOutcomes.WithLabelValues("admitted", "").Inc()
}

func (m *Metrics) IncrementDenied(reason string) {
	if m == nil {
		return
	}
	m.ClaimOutcomes.WithLabelValues("denied", reason).Inc()
}

// ObserveClaim records the duration of a Claim call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveClaim(start time.Time) {
	if m == nil {
		return
	}
	m.ClaimDuration.Observe(time.Since(start).Seconds())
}

// IncrementMirror records a mirror attempt. source is "claim" or "reconciler".
func (m *Metrics) IncrementMirror(source string, ok bool) {
	if m == nil {
		return
	}
	outcome := "mirrored"
	if !ok {
		outcome = "failed"
	}
	m.MirrorOutcomes.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) SetMirrorBacklog(n int) {
	if m == nil {
		return
	}
	m.MirrorBacklog.Set(float64(n))
}
