package js

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	scripts  *prometheus.CounterVec
	duration prometheus.Histogram
	realms   prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &metrics{
		scripts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vibedom",
			Subsystem: "js",
			Name:      "scripts_total",
			Help:      "Scripts evaluated, by outcome.",
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vibedom",
			Subsystem: "js",
			Name:      "script_duration_seconds",
			Help:      "Time spent compiling and running scripts.",
			Buckets:   prometheus.DefBuckets,
		}),
		realms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "vibedom",
			Subsystem: "js",
			Name:      "realms",
			Help:      "Live script realms.",
		}),
	}
}

func (m *metrics) observe(outcome string, elapsed time.Duration) {
	m.scripts.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}
