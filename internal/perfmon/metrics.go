package perfmon

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"donor-analytics/internal/domain"
)

const namespace = "donor_analytics"

// Metrics exports query executions as Prometheus series.
type Metrics struct {
	duration   prometheus.Histogram
	executions *prometheus.CounterVec
	slow       prometheus.Counter
	verySlow   prometheus.Counter
	timeouts   prometheus.Counter
}

// NewMetrics registers the execution series with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Wall-clock duration of tracked database queries.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		executions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "queries_total",
			Help:      "Tracked database queries by outcome.",
		}, []string{"outcome"}),
		slow: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "slow_queries_total",
			Help:      "Queries slower than the slow threshold.",
		}),
		verySlow: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "very_slow_queries_total",
			Help:      "Queries slower than the very-slow threshold.",
		}),
		timeouts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_timeouts_total",
			Help:      "Queries that failed with a timeout.",
		}),
	}
}

func (m *Metrics) observe(rec domain.QueryPerformanceMetrics, timedOut bool) {
	m.duration.Observe(rec.ExecutionTimeMs / 1000)
	outcome := "success"
	if rec.Failed {
		outcome = "failure"
	}
	m.executions.WithLabelValues(outcome).Inc()
	if rec.IsSlowQuery {
		m.slow.Inc()
	}
	if rec.IsVerySlowQuery {
		m.verySlow.Inc()
	}
	if timedOut {
		m.timeouts.Inc()
	}
}

// StatisticsCollector exposes the monitor's derived statistics as gauges.
// Scrapes read through the statistics cache.
type StatisticsCollector struct {
	monitor    *Monitor
	total      *prometheus.Desc
	average    *prometheus.Desc
	percentile *prometheus.Desc
}

// NewStatisticsCollector returns a collector bound to m.
func NewStatisticsCollector(m *Monitor) *StatisticsCollector {
	return &StatisticsCollector{
		monitor: m,
		total: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "retained_queries"),
			"Queries currently retained in the performance history.", nil, nil),
		average: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "query_average_ms"),
			"Mean execution time over the retained history.", nil, nil),
		percentile: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "query_percentile_ms"),
			"Execution time percentiles over the retained history.", []string{"percentile"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *StatisticsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.average
	ch <- c.percentile
}

// Collect implements prometheus.Collector.
func (c *StatisticsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.monitor.PerformanceStatistics()
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.TotalQueries))
	ch <- prometheus.MustNewConstMetric(c.average, prometheus.GaugeValue, s.AverageExecutionTimeMs)
	values := []float64{s.Percentiles.P50, s.Percentiles.P75, s.Percentiles.P90, s.Percentiles.P95, s.Percentiles.P99}
	for i, level := range percentileLevels {
		ch <- prometheus.MustNewConstMetric(c.percentile, prometheus.GaugeValue, values[i],
			"p"+strconv.Itoa(int(level)))
	}
}
