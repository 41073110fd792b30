package api

import (
	"context"
	"encoding/csv"
	"net/http"
	"time"

	"donor-analytics/internal/dberr"
	"donor-analytics/internal/domain"
)

var exportHeader = []string{
	"id", "donor_id", "campaign_id", "fund_id", "amount",
	"status", "payment_method", "frequency", "donated_at",
}

// ListDonations handles GET /api/v1/donations.
func (h *Handler) ListDonations(w http.ResponseWriter, r *http.Request) {
	if h.degraded(w, r, dberr.RequestDefault) {
		return
	}
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := parsePage(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	res := dberr.WithErrorHandling(r.Context(), h.logger, operation(r, "list donations"),
		func(ctx context.Context) (*domain.DonationPage, error) {
			return h.store.List(ctx, f, page)
		})
	writeResult(w, res)
}

// DonationSummary handles GET /api/v1/donations/summary.
func (h *Handler) DonationSummary(w http.ResponseWriter, r *http.Request) {
	if h.degraded(w, r, dberr.RequestAnalytics) {
		return
	}
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	res := dberr.WithErrorHandling(r.Context(), h.logger, operation(r, "donation summary"),
		func(ctx context.Context) (*domain.DonationSummary, error) {
			return h.store.Summary(ctx, f)
		})
	writeResult(w, res)
}

// ExportDonations handles GET /api/v1/donations/export as CSV. The header is
// written with the first row so a failure before any data still gets a JSON
// error response. A failure mid-stream truncates the body.
func (h *Handler) ExportDonations(w http.ResponseWriter, r *http.Request) {
	if h.degraded(w, r, dberr.RequestExport) {
		return
	}
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var (
		cw      *csv.Writer
		written int
	)
	res := dberr.WithErrorHandling(r.Context(), h.logger, operation(r, "export donations"),
		func(ctx context.Context) (int, error) {
			return h.store.Export(ctx, f, func(d domain.Donation) error {
				if cw == nil {
					w.Header().Set("Content-Type", "text/csv")
					w.Header().Set("Content-Disposition", `attachment; filename="donations.csv"`)
					w.WriteHeader(http.StatusOK)
					cw = csv.NewWriter(w)
					if err := cw.Write(exportHeader); err != nil {
						return err
					}
				}
				if err := cw.Write(donationRecord(d)); err != nil {
					return err
				}
				written++
				return nil
			})
		})

	if cw != nil {
		cw.Flush()
		if !res.OK() {
			h.logger.WarnContext(r.Context(), "donation export truncated",
				"rows", written, "kind", string(res.Failure.Type))
		}
		return
	}
	if !res.OK() {
		writeResult(w, res)
		return
	}
	// No rows: header only.
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="donations.csv"`)
	cw = csv.NewWriter(w)
	_ = cw.Write(exportHeader)
	cw.Flush()
}

func donationRecord(d domain.Donation) []string {
	return []string{
		d.ID, d.DonorID, d.CampaignID, d.FundID, d.Amount.StringFixed(2),
		d.Status, d.PaymentMethod, d.Frequency, d.DonatedAt.UTC().Format(time.RFC3339),
	}
}
