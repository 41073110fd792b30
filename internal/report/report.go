// Package report logs a periodic performance and uptime summary.
package report

import (
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"donor-analytics/internal/domain"
)

// StatsSource supplies the performance side of the report.
type StatsSource interface {
	PerformanceStatistics() *domain.PerformanceStatistics
}

// UptimeSource supplies the availability side of the report.
type UptimeSource interface {
	UptimeStatus() domain.UptimeStatus
}

// Reporter runs the summary on a cron schedule.
type Reporter struct {
	cron     *cron.Cron
	stats    StatsSource
	uptime   UptimeSource
	logger   *slog.Logger
	schedule string

	mu      sync.Mutex
	entry   cron.EntryID
	started bool
}

// New creates a Reporter. The schedule uses standard cron syntax or the
// "@every 5m" descriptors; an empty schedule disables the report.
func New(schedule string, stats StatsSource, uptime UptimeSource, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		cron:     cron.New(),
		stats:    stats,
		uptime:   uptime,
		logger:   logger,
		schedule: schedule,
	}
}

// Start registers the job and starts the scheduler. It is a no-op when the
// schedule is empty or the reporter is already running.
func (r *Reporter) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.schedule == "" || r.started {
		return nil
	}
	id, err := r.cron.AddFunc(r.schedule, r.Run)
	if err != nil {
		return err
	}
	r.entry = id
	r.started = true
	r.cron.Start()
	r.logger.Info("performance report scheduled", "schedule", r.schedule)
	return nil
}

// Stop halts the scheduler and waits for a running report to finish.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return
	}
	<-r.cron.Stop().Done()
	r.cron.Remove(r.entry)
	r.started = false
}

// Run logs one report immediately.
func (r *Reporter) Run() {
	s := r.stats.PerformanceStatistics()
	u := r.uptime.UptimeStatus()

	attrs := []any{
		"total_queries", s.TotalQueries,
		"avg_ms", s.AverageExecutionTimeMs,
		"p95_ms", s.Percentiles.P95,
		"p99_ms", s.Percentiles.P99,
		"slow_queries", s.SlowQueries,
		"very_slow_queries", s.VerySlowQueries,
		"timeouts", s.TimeoutQueries,
		"uptime", u.Uptime,
		"healthy_pct", u.HealthyPercentage,
		"checks", u.ChecksConsidered,
	}
	if u.LastCheck != nil && !u.LastCheck.Healthy {
		r.logger.Warn("performance report", append(attrs, "database", "down")...)
		return
	}
	r.logger.Info("performance report", attrs...)
}
