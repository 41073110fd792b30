// Package perfmon tracks the runtime performance of every query executed
// against the donation store: a bounded history of executions, aggregate and
// percentile statistics, slow-query and windowed-trend views.
package perfmon

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"donor-analytics/internal/dberr"
	"donor-analytics/internal/domain"
	"donor-analytics/internal/ring"
)

// Config holds the monitor's thresholds and sizes.
type Config struct {
	HistorySize       int           // retained executions (default 1000)
	SlowThreshold     time.Duration // default 1s
	VerySlowThreshold time.Duration // default 5s
	CacheTTL          time.Duration // statistics cache lifetime (default 60s)
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		HistorySize:       1000,
		SlowThreshold:     time.Second,
		VerySlowThreshold: 5 * time.Second,
		CacheTTL:          time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HistorySize <= 0 {
		c.HistorySize = d.HistorySize
	}
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = d.SlowThreshold
	}
	if c.VerySlowThreshold <= 0 {
		c.VerySlowThreshold = d.VerySlowThreshold
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	return c
}

// Option customises a Monitor.
type Option func(*Monitor)

// WithClock replaces the wall clock used for timestamps, trends and the cache TTL.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithMetrics exports every recorded execution to Prometheus.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Monitor) { m.metrics = metrics }
}

// Monitor accumulates query executions. It never returns errors; it only
// observes. All methods are safe for concurrent use.
type Monitor struct {
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
	metrics *Metrics

	mu       sync.Mutex
	history  *ring.Buffer[domain.QueryPerformanceMetrics]
	timeouts int
	stats    *domain.PerformanceStatistics
	statsAt  time.Time
	dirty    bool
	version  uint64

	recompute singleflight.Group
}

// New creates a monitor with an empty history.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Monitor {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		history: ring.New[domain.QueryPerformanceMetrics](cfg.HistorySize),
		dirty:   true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the effective configuration.
func (m *Monitor) Config() Config { return m.cfg }

// RecordQueryExecution appends one execution to the history, evicting the
// oldest when full, and invalidates the statistics cache. Slow executions
// are logged at WARN, very slow ones at ERROR.
func (m *Monitor) RecordQueryExecution(query string, elapsed time.Duration, params any, err error) {
	ms := durationMs(elapsed)
	rec := domain.QueryPerformanceMetrics{
		QueryHash:       QueryHash(query),
		Query:           SanitizeQuery(query),
		ExecutionTimeMs: ms,
		Timestamp:       m.now().UTC(),
		Params:          sanitizeParams(params),
		IsSlowQuery:     ms > durationMs(m.cfg.SlowThreshold),
		IsVerySlowQuery: ms > durationMs(m.cfg.VerySlowThreshold),
		Failed:          err != nil,
	}
	timedOut := isTimeout(err)

	m.mu.Lock()
	m.history.Push(rec)
	if timedOut {
		m.timeouts++
	}
	m.dirty = true
	m.version++
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.observe(rec, timedOut)
	}

	switch {
	case rec.IsVerySlowQuery:
		m.logger.Error("very slow query",
			"query_hash", rec.QueryHash,
			"query", rec.Query,
			"execution_time_ms", rec.ExecutionTimeMs,
			"threshold_ms", durationMs(m.cfg.VerySlowThreshold),
		)
	case rec.IsSlowQuery:
		m.logger.Warn("slow query",
			"query_hash", rec.QueryHash,
			"query", rec.Query,
			"execution_time_ms", rec.ExecutionTimeMs,
			"threshold_ms", durationMs(m.cfg.SlowThreshold),
		)
	}
}

// PerformanceStatistics returns aggregate statistics over the retained
// history. While nothing new has been recorded and the cached snapshot is
// younger than the TTL, the same pointer is returned. With no history the
// result is all zeros.
func (m *Monitor) PerformanceStatistics() *domain.PerformanceStatistics {
	m.mu.Lock()
	if s := m.stats; s != nil && !m.dirty && m.now().Sub(m.statsAt) < m.cfg.CacheTTL {
		m.mu.Unlock()
		return s
	}
	m.mu.Unlock()

	v, _, _ := m.recompute.Do("stats", func() (any, error) {
		m.mu.Lock()
		samples := m.history.Snapshot()
		timeouts := m.timeouts
		version := m.version
		m.mu.Unlock()

		s := computeStatistics(samples, timeouts)

		m.mu.Lock()
		if m.version == version {
			m.stats = s
			m.statsAt = m.now()
			m.dirty = false
		}
		m.mu.Unlock()
		return s, nil
	})
	return v.(*domain.PerformanceStatistics)
}

// SlowQueryAnalysis returns up to limit slow executions, slowest first.
// A non-positive limit defaults to 10.
func (m *Monitor) SlowQueryAnalysis(limit int) []domain.QueryPerformanceMetrics {
	if limit <= 0 {
		limit = 10
	}
	m.mu.Lock()
	samples := m.history.Snapshot()
	m.mu.Unlock()

	slow := make([]domain.QueryPerformanceMetrics, 0)
	for _, s := range samples {
		if s.IsSlowQuery {
			slow = append(slow, s)
		}
	}
	sort.SliceStable(slow, func(i, j int) bool {
		return slow[i].ExecutionTimeMs > slow[j].ExecutionTimeMs
	})
	if len(slow) > limit {
		slow = slow[:limit]
	}
	return slow
}

// PerformanceTrends summarises executions recorded in the last windowMinutes.
// A non-positive window defaults to 60 minutes.
func (m *Monitor) PerformanceTrends(windowMinutes int) domain.PerformanceTrend {
	if windowMinutes <= 0 {
		windowMinutes = 60
	}
	end := m.now().UTC()
	start := end.Add(-time.Duration(windowMinutes) * time.Minute)
	trend := domain.PerformanceTrend{
		WindowStart:   start,
		WindowEnd:     end,
		WindowMinutes: windowMinutes,
	}

	m.mu.Lock()
	samples := m.history.Snapshot()
	m.mu.Unlock()

	var total float64
	var slow int
	for _, s := range samples {
		if s.Timestamp.Before(start) || s.Timestamp.After(end) {
			continue
		}
		trend.QueryCount++
		total += s.ExecutionTimeMs
		if s.IsSlowQuery {
			slow++
		}
	}
	if trend.QueryCount == 0 {
		return trend
	}
	trend.AverageExecutionTimeMs = total / float64(trend.QueryCount)
	trend.SlowQueryRate = float64(slow) / float64(trend.QueryCount) * 100
	return trend
}

// History returns a copy of the retained executions, oldest first.
func (m *Monitor) History() []domain.QueryPerformanceMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.Snapshot()
}

// ClearHistory empties the history and resets counters.
func (m *Monitor) ClearHistory() {
	m.mu.Lock()
	m.history.Reset()
	m.timeouts = 0
	m.stats = nil
	m.dirty = true
	m.version++
	m.mu.Unlock()
	m.logger.Info("query performance history cleared")
}

// percentileLevels are the reported percentiles.
var percentileLevels = []float64{50, 75, 90, 95, 99}

func computeStatistics(samples []domain.QueryPerformanceMetrics, timeouts int) *domain.PerformanceStatistics {
	s := &domain.PerformanceStatistics{TimeoutQueries: timeouts}
	n := len(samples)
	if n == 0 {
		return s
	}

	times := make([]float64, n)
	var sum float64
	for i, q := range samples {
		times[i] = q.ExecutionTimeMs
		sum += q.ExecutionTimeMs
		switch {
		case q.IsVerySlowQuery:
			s.SlowQueries++
			s.VerySlowQueries++
		case q.IsSlowQuery:
			s.SlowQueries++
		default:
			s.FastQueries++
		}
	}
	sort.Float64s(times)

	s.TotalQueries = n
	s.AverageExecutionTimeMs = sum / float64(n)
	p := make([]float64, len(percentileLevels))
	for i, level := range percentileLevels {
		p[i] = Percentile(times, level)
	}
	s.Percentiles = domain.Percentiles{P50: p[0], P75: p[1], P90: p[2], P95: p[3], P99: p[4]}
	return s
}

// Percentile returns the element at index ceil(p/100*n)-1 of an ascending
// sorted slice, clamped to the slice bounds. It returns 0 for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || dberr.Categorize(err) == dberr.CategoryTimeout {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out")
}
