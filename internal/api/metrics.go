package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client-side request collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booksy",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Requests sent to the Booksy backend by operation and outcome.",
		}, []string{"op", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "booksy",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests sent to the Booksy backend.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "method"}),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.duration)
	}

	return m
}

func (m *Metrics) observe(op, method, status string, d time.Duration) {
	m.requests.WithLabelValues(op, method, status).Inc()
	m.duration.WithLabelValues(op, method).Observe(d.Seconds())
}
