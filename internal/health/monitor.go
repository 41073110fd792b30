// Package health probes database connectivity on a timer, keeps a bounded
// history of probe results and reports uptime and availability.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"donor-analytics/internal/domain"
	"donor-analytics/internal/redact"
	"donor-analytics/internal/ring"
)

// Prober runs one lightweight connectivity check and reports the pool state.
type Prober interface {
	Probe(ctx context.Context) (domain.PoolSnapshot, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) (domain.PoolSnapshot, error)

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context) (domain.PoolSnapshot, error) { return f(ctx) }

// TransitionFunc is called after a probe whose health differs from the one
// before it.
type TransitionFunc func(prev, cur domain.HealthCheckResult)

// Config holds the monitor's sizes and timeouts.
type Config struct {
	HistorySize   int           // retained probe results (default 100, minimum 2)
	UptimeWindow  int           // probes considered for availability (default 50)
	ProbeTimeout  time.Duration // per-probe deadline (default 5s)
	SlowThreshold time.Duration // slow cut-off for the query counters (default 1s)
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		HistorySize:   100,
		UptimeWindow:  50,
		ProbeTimeout:  5 * time.Second,
		SlowThreshold: time.Second,
	}
}

// minHistorySize keeps the previous probe available for transition detection.
const minHistorySize = 2

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HistorySize <= 0 {
		c.HistorySize = d.HistorySize
	}
	if c.HistorySize < minHistorySize {
		c.HistorySize = minHistorySize
	}
	if c.UptimeWindow <= 0 {
		c.UptimeWindow = d.UptimeWindow
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = d.ProbeTimeout
	}
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = d.SlowThreshold
	}
	return c
}

// Option customises a Monitor.
type Option func(*Monitor)

// WithClock replaces the wall clock used for timestamps and uptime.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithMetrics exports probe outcomes to Prometheus.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Monitor) { m.metrics = metrics }
}

// OnTransition registers fn to be called on every health transition.
func OnTransition(fn TransitionFunc) Option {
	return func(m *Monitor) { m.onTransition = fn }
}

// Monitor owns the probe history. All methods are safe for concurrent use.
type Monitor struct {
	cfg          Config
	prober       Prober
	logger       *slog.Logger
	now          func() time.Time
	metrics      *Metrics
	onTransition TransitionFunc
	startedAt    time.Time

	mu       sync.Mutex
	history  *ring.Buffer[domain.HealthCheckResult]
	counters domain.QueryCounters
	running  bool
	stop     chan struct{}
	done     chan struct{}
}

// New creates a monitor that probes through p.
func New(p Prober, cfg Config, logger *slog.Logger, opts ...Option) *Monitor {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{
		cfg:     cfg,
		prober:  p,
		logger:  logger,
		now:     time.Now,
		history: ring.New[domain.HealthCheckResult](cfg.HistorySize),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.startedAt = m.now()
	return m
}

// Start runs a probe immediately and then every interval until Stop is
// called. A second Start while running only logs a warning.
func (m *Monitor) Start(interval time.Duration) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.logger.Warn("health monitoring already running")
		return
	}
	m.running = true
	stop := make(chan struct{})
	done := make(chan struct{})
	m.stop, m.done = stop, done
	m.mu.Unlock()

	m.logger.Info("health monitoring started", "interval", interval.String())
	go m.loop(interval, stop, done)
}

func (m *Monitor) loop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	// Probes use their own deadline so that Stop never shows up as a failed probe.
	m.PerformHealthCheck(context.Background())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !m.Running() {
				return
			}
			m.PerformHealthCheck(context.Background())
		}
	}
}

// Stop ends monitoring and waits for an in-flight probe to finish. It is a
// no-op when monitoring is not running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	m.mu.Unlock()

	close(stop)
	<-done
	m.logger.Info("health monitoring stopped")
}

// Running reports whether the periodic probe is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// PerformHealthCheck runs one probe, appends the result and signals a
// transition when the result differs from the previous one.
func (m *Monitor) PerformHealthCheck(ctx context.Context) domain.HealthCheckResult {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	start := time.Now()
	pool, err := m.prober.Probe(ctx)
	elapsed := time.Since(start)

	res := domain.HealthCheckResult{
		Timestamp: m.now().UTC(),
		Healthy:   err == nil,
		LatencyMs: float64(elapsed) / float64(time.Millisecond),
	}
	if err != nil {
		res.Error = redact.String(err.Error())
	} else {
		res.Pool = pool
	}

	m.mu.Lock()
	prev, ok := m.history.Newest()
	m.history.Push(res)
	transition := ok && prev.Healthy != res.Healthy
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.observe(res, transition)
	}
	if transition {
		m.signal(prev, res)
	}
	return res
}

func (m *Monitor) signal(prev, cur domain.HealthCheckResult) {
	if cur.Healthy {
		m.logger.Info("database connection restored",
			"latency_ms", cur.LatencyMs,
			"down_since", prev.Timestamp,
		)
	} else {
		m.logger.Error("database connection lost",
			"error", cur.Error,
			"last_healthy", prev.Timestamp,
		)
	}
	if m.onTransition != nil {
		m.onTransition(prev, cur)
	}
}

// Latest returns the newest probe result, or nil before the first probe.
func (m *Monitor) Latest() *domain.HealthCheckResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.history.Newest()
	if !ok {
		return nil
	}
	return &r
}

// Healthy reports whether the database is usable. Before the first probe
// the database is assumed healthy.
func (m *Monitor) Healthy() bool {
	latest := m.Latest()
	return latest == nil || latest.Healthy
}

// History returns a copy of the retained probe results, oldest first.
func (m *Monitor) History() []domain.HealthCheckResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.Snapshot()
}

// RecordQueryExecution updates the coarse query counters.
func (m *Monitor) RecordQueryExecution(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters.TotalQueries++
	m.counters.TotalTimeMs += float64(elapsed) / float64(time.Millisecond)
	if elapsed > m.cfg.SlowThreshold {
		m.counters.SlowQueries++
	}
}

// UptimeStatus reports elapsed time since the monitor was created and the
// share of healthy probes among the most recent ones. With no probes yet
// availability is 100%.
func (m *Monitor) UptimeStatus() domain.UptimeStatus {
	now := m.now()

	m.mu.Lock()
	recent := m.history.Last(m.cfg.UptimeWindow)
	counters := m.counters
	running := m.running
	var last *domain.HealthCheckResult
	if r, ok := m.history.Newest(); ok {
		last = &r
	}
	m.mu.Unlock()

	secs := int64(now.Sub(m.startedAt) / time.Second)
	if secs < 0 {
		secs = 0
	}
	h, rem := secs/3600, secs%3600
	mins, s := rem/60, rem%60

	pct := 100.0
	if len(recent) > 0 {
		healthy := 0
		for _, r := range recent {
			if r.Healthy {
				healthy++
			}
		}
		pct = float64(healthy) / float64(len(recent)) * 100
	}

	if counters.TotalQueries > 0 {
		counters.AverageTimeMs = counters.TotalTimeMs / float64(counters.TotalQueries)
	}

	return domain.UptimeStatus{
		StartedAt:         m.startedAt.UTC(),
		Uptime:            fmt.Sprintf("%dh %dm %ds", h, mins, s),
		UptimeSeconds:     secs,
		Hours:             h,
		Minutes:           mins,
		Seconds:           s,
		HealthyPercentage: pct,
		ChecksConsidered:  len(recent),
		Monitoring:        running,
		LastCheck:         last,
		Queries:           counters,
	}
}
