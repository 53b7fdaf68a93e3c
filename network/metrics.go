package network

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts loader fetches by resource type and outcome.
type Metrics struct {
	fetches  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	shared   prometheus.Counter
}

// NewMetrics registers the loader metrics with reg. A nil reg uses a private
// registry so repeated construction in tests does not collide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		fetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vibedom",
			Subsystem: "network",
			Name:      "fetches_total",
			Help:      "Resource fetches by type and outcome (ok, status, error, cache).",
		}, []string{"type", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vibedom",
			Subsystem: "network",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching resources, cache hits excluded.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		shared: f.NewCounter(prometheus.CounterOpts{
			Namespace: "vibedom",
			Subsystem: "network",
			Name:      "fetches_shared_total",
			Help:      "Fetches answered by an identical request already in flight.",
		}),
	}
}

func (m *Metrics) observe(typ ResourceType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(typ.String(), outcome).Inc()
	if outcome != "cache" {
		m.duration.WithLabelValues(typ.String()).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) observeShared() {
	if m == nil {
		return
	}
	m.shared.Inc()
}
