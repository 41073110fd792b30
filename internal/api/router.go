package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"donor-analytics/internal/middleware"
)

// RouterConfig holds the cross-cutting settings for NewRouter.
type RouterConfig struct {
	CORSAllowedOrigins []string
	RateLimit          middleware.RateLimitConfig
	OpsAuth            middleware.OpsAuthConfig
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewRouter mounts every route. The rate limiter's sweeper runs until ctx is
// done.
func NewRouter(ctx context.Context, h *Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, apiKeyHeader(cfg.OpsAuth)},
			ExposedHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", h.Liveness)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit.RequestsPerSecond > 0 {
			r.Use(middleware.RateLimiter(ctx, cfg.RateLimit))
		}

		r.Route("/donations", func(r chi.Router) {
			r.Get("/", h.ListDonations)
			r.Get("/summary", h.DonationSummary)
			r.Get("/export", h.ExportDonations)
		})

		r.Route("/diagnostics", func(r chi.Router) {
			r.Get("/performance", h.PerformanceStatistics)
			r.Get("/slow-queries", h.SlowQueries)
			r.Get("/trends", h.PerformanceTrends)
			r.Get("/health", h.HealthStatus)

			r.Group(func(r chi.Router) {
				r.Use(middleware.OpsAuth(cfg.OpsAuth, logger))
				r.Post("/health/check", h.RunHealthCheck)
				r.Post("/performance/reset", h.ResetPerformance)
			})
		})
	})
	return r
}

func apiKeyHeader(cfg middleware.OpsAuthConfig) string {
	if cfg.APIKeyHeader != "" {
		return cfg.APIKeyHeader
	}
	return "X-API-Key"
}
