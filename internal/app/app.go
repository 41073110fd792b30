// Package app provides application-level wiring and lifecycle for the
// donor analytics service.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"donor-analytics/internal/api"
	"donor-analytics/internal/config"
	"donor-analytics/internal/db"
	"donor-analytics/internal/db/repository"
	"donor-analytics/internal/health"
	"donor-analytics/internal/middleware"
	"donor-analytics/internal/perfmon"
	"donor-analytics/internal/report"
)

// Deps holds the external dependencies the caller must provide.
type Deps struct {
	Cfg    *config.Config
	DB     *db.Pair
	Logger *slog.Logger
	// Registry receives every collector. Nil creates a private registry.
	Registry *prometheus.Registry
}

// App holds the fully wired monitors, repository, and HTTP handler.
type App struct {
	Perf      *perfmon.Monitor
	Health    *health.Monitor
	Donations *repository.DonationRepo
	Reporter  *report.Reporter
	Registry  *prometheus.Registry
	Handler   *api.Handler

	cfg    *config.Config
	logger *slog.Logger
}

// New wires the monitors, repository, and handler from deps. Every tracked
// query feeds both the performance monitor and the health monitor's counters.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	mon := cfg.Monitoring

	// === Monitors ===
	perf := perfmon.New(perfmon.Config{
		HistorySize:       mon.QueryHistorySize,
		SlowThreshold:     mon.SlowQueryThreshold,
		VerySlowThreshold: mon.VerySlowQueryThreshold,
		CacheTTL:          mon.StatsCacheTTL,
	}, logger.With("component", "perfmon"), perfmon.WithMetrics(perfmon.NewMetrics(reg)))

	healthMon := health.New(health.NewSQLProber(deps.DB.Read), health.Config{
		HistorySize:   mon.HealthHistorySize,
		UptimeWindow:  mon.UptimeWindow,
		ProbeTimeout:  mon.HealthProbeTimeout,
		SlowThreshold: mon.SlowQueryThreshold,
	}, logger.With("component", "health"), health.WithMetrics(health.NewMetrics(reg)))

	if err := reg.Register(perfmon.NewStatisticsCollector(perf)); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		logger.Debug("go collector already registered", "error", err)
	}

	// === Repository ===
	rec := perfmon.Tee(perf, perfmon.RecorderFunc(
		func(_ string, elapsed time.Duration, _ any, _ error) {
			healthMon.RecordQueryExecution(elapsed)
		}))
	donations := repository.NewDonationRepo(deps.DB.Write, deps.DB.Read, rec)

	checkSchema(ctx, deps.DB.Write, logger)

	return &App{
		Perf:      perf,
		Health:    healthMon,
		Donations: donations,
		Reporter:  report.New(mon.ReportSchedule, perf, healthMon, logger.With("component", "report")),
		Registry:  reg,
		Handler:   api.NewHandler(donations, perf, healthMon, logger.With("component", "api")),
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Router builds the HTTP handler. Background work tied to the router stops
// when ctx is done.
func (a *App) Router(ctx context.Context) http.Handler {
	return api.NewRouter(ctx, a.Handler, api.RouterConfig{
		CORSAllowedOrigins: a.cfg.CORSAllowedOrigins,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: a.cfg.RateLimitRPS,
			Burst:             a.cfg.RateLimitBurst,
		},
		OpsAuth: middleware.OpsAuthConfig{
			JWTSecret:    a.cfg.OpsAuth.JWTSecret,
			APIKey:       a.cfg.OpsAuth.APIKey,
			APIKeyHeader: a.cfg.OpsAuth.APIKeyHeader,
		},
		Gatherer: a.Registry,
		Logger:   a.logger.With("component", "http"),
	})
}

// Start begins periodic health probing and the scheduled report.
func (a *App) Start() error {
	a.Health.Start(a.cfg.Monitoring.HealthCheckInterval)
	if err := a.Reporter.Start(); err != nil {
		a.Health.Stop()
		return err
	}
	return nil
}

// Stop halts background work. It is safe to call more than once.
func (a *App) Stop() {
	a.Reporter.Stop()
	a.Health.Stop()
}
