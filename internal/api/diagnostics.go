package api

import (
	"net/http"

	"donor-analytics/internal/domain"
	"donor-analytics/internal/middleware"
)

// PerformanceStatistics handles GET /api/v1/diagnostics/performance.
func (h *Handler) PerformanceStatistics(w http.ResponseWriter, _ *http.Request) {
	writeData(w, h.perf.PerformanceStatistics())
}

// SlowQueries handles GET /api/v1/diagnostics/slow-queries.
func (h *Handler) SlowQueries(w http.ResponseWriter, r *http.Request) {
	limit, err := parsePositive(r.URL.Query(), "limit", 10)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, h.perf.SlowQueryAnalysis(limit))
}

// PerformanceTrends handles GET /api/v1/diagnostics/trends.
func (h *Handler) PerformanceTrends(w http.ResponseWriter, r *http.Request) {
	window, err := parsePositive(r.URL.Query(), "window", 60)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, h.perf.PerformanceTrends(window))
}

// ResetPerformance handles POST /api/v1/diagnostics/performance/reset.
func (h *Handler) ResetPerformance(w http.ResponseWriter, r *http.Request) {
	h.perf.ClearHistory()
	principal, _ := middleware.PrincipalFromContext(r.Context())
	h.logger.InfoContext(r.Context(), "performance history cleared", "principal", principal)
	writeData(w, h.perf.PerformanceStatistics())
}

type healthReport struct {
	Healthy bool                       `json:"healthy"`
	Latest  *domain.HealthCheckResult  `json:"latest,omitempty"`
	Uptime  domain.UptimeStatus        `json:"uptime"`
	History []domain.HealthCheckResult `json:"history"`
}

// noHealthMonitor answers the health routes of a Handler built without a
// monitor.
func noHealthMonitor(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, map[string]any{
		"success": false,
		"error":   "health monitoring is not configured",
	})
}

// HealthStatus handles GET /api/v1/diagnostics/health.
func (h *Handler) HealthStatus(w http.ResponseWriter, _ *http.Request) {
	if h.health == nil {
		noHealthMonitor(w)
		return
	}
	writeData(w, healthReport{
		Healthy: h.health.Healthy(),
		Latest:  h.health.Latest(),
		Uptime:  h.health.UptimeStatus(),
		History: h.health.History(),
	})
}

// RunHealthCheck handles POST /api/v1/diagnostics/health/check.
func (h *Handler) RunHealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		noHealthMonitor(w)
		return
	}
	res := h.health.PerformHealthCheck(r.Context())
	status := http.StatusOK
	if !res.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"success": res.Healthy, "data": res})
}

// Liveness handles GET /healthz. It reflects the last probe and never touches
// the database itself. Without a monitor it only reports the process as up.
func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	if h.health != nil && !h.health.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
