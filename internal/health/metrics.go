package health

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"donor-analytics/internal/domain"
)

const namespace = "donor_analytics"

// Metrics exports probe results as Prometheus series.
type Metrics struct {
	up          prometheus.Gauge
	latency     prometheus.Histogram
	transitions *prometheus.CounterVec
	pool        *prometheus.GaugeVec
}

// NewMetrics registers the health series with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		up: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "up",
			Help:      "1 when the latest connectivity probe succeeded.",
		}),
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "probe_duration_seconds",
			Help:      "Latency of connectivity probes.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "health_transitions_total",
			Help:      "Connectivity state changes by direction.",
		}, []string{"to"}),
		pool: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "pool_connections",
			Help:      "Connection pool snapshot from the latest probe.",
		}, []string{"state"}),
	}
}

func (m *Metrics) observe(res domain.HealthCheckResult, transition bool) {
	m.latency.Observe(res.LatencyMs / 1000)
	if res.Healthy {
		m.up.Set(1)
	} else {
		m.up.Set(0)
	}
	if transition {
		to := "lost"
		if res.Healthy {
			to = "restored"
		}
		m.transitions.WithLabelValues(to).Inc()
	}
	m.pool.WithLabelValues("size").Set(float64(res.Pool.Size))
	m.pool.WithLabelValues("available").Set(float64(res.Pool.Available))
	m.pool.WithLabelValues("used").Set(float64(res.Pool.Used))
	m.pool.WithLabelValues("pending").Set(float64(res.Pool.Pending))
}
