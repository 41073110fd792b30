// Package api provides the HTTP surface: filtered donation endpoints and the
// diagnostics readers over the performance and health monitors.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"donor-analytics/internal/dberr"
	"donor-analytics/internal/domain"
	"donor-analytics/internal/health"
	"donor-analytics/internal/middleware"
	"donor-analytics/internal/perfmon"
)

// DonationStore is the read side of the donation repository.
type DonationStore interface {
	List(ctx context.Context, f domain.UniversalFilter, page domain.PageRequest) (*domain.DonationPage, error)
	Summary(ctx context.Context, f domain.UniversalFilter) (*domain.DonationSummary, error)
	Export(ctx context.Context, f domain.UniversalFilter, fn func(domain.Donation) error) (int, error)
}

// Handler serves the donation and diagnostics routes.
type Handler struct {
	store  DonationStore
	perf   *perfmon.Monitor
	health *health.Monitor
	logger *slog.Logger
}

// NewHandler creates a Handler. healthMon may be nil, in which case the
// degraded-mode short-circuit is disabled and the health diagnostics answer
// 503.
func NewHandler(store DonationStore, perf *perfmon.Monitor, healthMon *health.Monitor, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, perf: perf, health: healthMon, logger: logger}
}

// degraded writes the canned unavailable response and returns true when the
// latest probe found the database down.
func (h *Handler) degraded(w http.ResponseWriter, r *http.Request, rt dberr.RequestType) bool {
	if h.health == nil || h.health.Healthy() {
		return false
	}
	resp := dberr.Unavailable(rt, middleware.RequestIDFromContext(r.Context()))
	w.Header().Set("Retry-After", "30")
	writeJSON(w, resp.StatusCode(), resp)
	return true
}

// operation describes the request for failure logging.
func operation(r *http.Request, name string) dberr.Operation {
	params := make(map[string]any, len(r.URL.Query()))
	for k, v := range r.URL.Query() {
		if len(v) == 1 {
			params[k] = v[0]
		} else {
			params[k] = v
		}
	}
	return dberr.Operation{
		Name:      name,
		RequestID: middleware.RequestIDFromContext(r.Context()),
		Params:    params,
	}
}
