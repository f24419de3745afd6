package pinata

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks upstream object store latency and breaker transitions.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	BreakerOpen     prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "owndrob_objectstore_request_duration_seconds",
			Help:    "Latency of object store calls by operation and outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"op", "outcome"}),
		BreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "owndrob_objectstore_circuit_open",
			Help: "1 while the object store circuit breaker is open",
		}),
	}
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RequestDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}

func (m *Metrics) setBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}
