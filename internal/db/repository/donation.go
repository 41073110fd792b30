// Package repository implements the donation store on SQLite.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"donor-analytics/internal/dberr"
	"donor-analytics/internal/domain"
	"donor-analytics/internal/filter"
	"donor-analytics/internal/perfmon"
)

// MaxExportRows caps a single CSV export.
const MaxExportRows = 100_000

const donationColumns = "id, donor_id, campaign_id, fund_id, amount, status, payment_method, frequency, donated_at"

// DonationRepo runs filtered donation queries. Every statement is timed
// through the recorder, and driver failures are tagged with a dberr category.
type DonationRepo struct {
	write *sqlx.DB
	read  *sqlx.DB
	rec   perfmon.Recorder
}

// NewDonationRepo creates a repo that writes through write and reads through
// read. rec may be nil.
func NewDonationRepo(write, read *sql.DB, rec perfmon.Recorder) *DonationRepo {
	return &DonationRepo{
		write: sqlx.NewDb(write, "sqlite3"),
		read:  sqlx.NewDb(read, "sqlite3"),
		rec:   rec,
	}
}

// build appends the compiled filter to base and expands membership clauses.
func (r *DonationRepo) build(base string, f domain.UniversalFilter, suffix string, extra ...any) (string, []any, error) {
	where, args, err := filter.ToSQL(filter.Compile(f), filter.DonationColumns)
	if err != nil {
		return "", nil, fmt.Errorf("render filter: %w", err)
	}
	var b strings.Builder
	b.WriteString(base)
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	if suffix != "" {
		b.WriteString(" ")
		b.WriteString(suffix)
	}
	query, args, err := sqlx.In(b.String(), append(args, extra...)...)
	if err != nil {
		return "", nil, fmt.Errorf("expand filter: %w", err)
	}
	return r.read.Rebind(query), args, nil
}

// List returns one page of donations matching f, newest first.
func (r *DonationRepo) List(ctx context.Context, f domain.UniversalFilter, page domain.PageRequest) (*domain.DonationPage, error) {
	countQ, countArgs, err := r.build("SELECT count(*) FROM donations", f, "")
	if err != nil {
		return nil, err
	}
	total, err := perfmon.Track(ctx, r.rec, countQ, countArgs, func(ctx context.Context) (int64, error) {
		var n int64
		err := r.read.GetContext(ctx, &n, countQ, countArgs...)
		return n, err
	})
	if err != nil {
		return nil, dberr.Wrap("count donations", err)
	}

	offset, limit := page.Offset(), page.Limit()
	listQ, listArgs, err := r.build("SELECT "+donationColumns+" FROM donations", f,
		"ORDER BY donated_at DESC, id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	rows, err := perfmon.Track(ctx, r.rec, listQ, listArgs, func(ctx context.Context) ([]domain.Donation, error) {
		out := make([]domain.Donation, 0, limit)
		err := r.read.SelectContext(ctx, &out, listQ, listArgs...)
		return out, err
	})
	if err != nil {
		return nil, dberr.Wrap("list donations", err)
	}

	return &domain.DonationPage{
		Donations:     rows,
		Total:         total,
		NextPageToken: domain.NextPageToken(offset, limit, total),
	}, nil
}

type summaryRow struct {
	Count        int64           `db:"count"`
	Total        decimal.Decimal `db:"total"`
	Average      decimal.Decimal `db:"average"`
	UniqueDonors int64           `db:"unique_donors"`
}

type statusCount struct {
	Status string `db:"status"`
	Count  int64  `db:"count"`
}

// Summary aggregates the donations matching f.
func (r *DonationRepo) Summary(ctx context.Context, f domain.UniversalFilter) (*domain.DonationSummary, error) {
	aggQ, aggArgs, err := r.build(`SELECT count(*) AS count,
		COALESCE(SUM(amount), 0) AS total,
		COALESCE(AVG(amount), 0) AS average,
		count(DISTINCT donor_id) AS unique_donors
		FROM donations`, f, "")
	if err != nil {
		return nil, err
	}
	agg, err := perfmon.Track(ctx, r.rec, aggQ, aggArgs, func(ctx context.Context) (summaryRow, error) {
		var row summaryRow
		err := r.read.GetContext(ctx, &row, aggQ, aggArgs...)
		return row, err
	})
	if err != nil {
		return nil, dberr.Wrap("summarize donations", err)
	}

	statusQ, statusArgs, err := r.build("SELECT status, count(*) AS count FROM donations", f, "GROUP BY status ORDER BY status")
	if err != nil {
		return nil, err
	}
	counts, err := perfmon.Track(ctx, r.rec, statusQ, statusArgs, func(ctx context.Context) ([]statusCount, error) {
		var out []statusCount
		err := r.read.SelectContext(ctx, &out, statusQ, statusArgs...)
		return out, err
	})
	if err != nil {
		return nil, dberr.Wrap("summarize donations by status", err)
	}

	s := &domain.DonationSummary{
		Count:         agg.Count,
		TotalAmount:   agg.Total.Round(2),
		AverageAmount: agg.Average.Round(2),
		UniqueDonors:  agg.UniqueDonors,
		ByStatus:      make(map[string]int64, len(counts)),
	}
	for _, c := range counts {
		s.ByStatus[c.Status] = c.Count
	}
	return s, nil
}

// Export streams up to MaxExportRows donations matching f to fn, oldest
// first. Iteration stops at the first error from fn. Time spent inside fn is
// not counted as query time, so a slow consumer never shows up as a slow
// query.
func (r *DonationRepo) Export(ctx context.Context, f domain.UniversalFilter, fn func(domain.Donation) error) (int, error) {
	q, args, err := r.build("SELECT "+donationColumns+" FROM donations", f,
		"ORDER BY donated_at, id LIMIT ?", MaxExportRows)
	if err != nil {
		return 0, err
	}
	n, err := perfmon.TrackSpan(ctx, r.rec, q, args, func(ctx context.Context, span *perfmon.Span) (int, error) {
		rows, err := r.read.QueryxContext(ctx, q, args...)
		if err != nil {
			return 0, err
		}
		defer rows.Close() //nolint:errcheck

		n := 0
		for rows.Next() {
			var d domain.Donation
			if err := rows.StructScan(&d); err != nil {
				return n, err
			}
			if err := span.Exclude(func() error { return fn(d) }); err != nil {
				return n, err
			}
			n++
		}
		return n, rows.Err()
	})
	if err != nil {
		return n, dberr.Wrap("export donations", err)
	}
	return n, nil
}

type donationRow struct {
	ID            string          `db:"id"`
	DonorID       string          `db:"donor_id"`
	CampaignID    string          `db:"campaign_id"`
	FundID        string          `db:"fund_id"`
	Amount        decimal.Decimal `db:"amount"`
	Status        string          `db:"status"`
	PaymentMethod string          `db:"payment_method"`
	Frequency     string          `db:"frequency"`
	DonatedAt     string          `db:"donated_at"`
}

const insertDonation = `INSERT INTO donations (` + donationColumns + `)
	VALUES (:id, :donor_id, :campaign_id, :fund_id, :amount, :status, :payment_method, :frequency, :donated_at)`

// Insert stores donations in a single transaction. Timestamps are stored in
// UTC using the layout filter predicates compare against.
func (r *DonationRepo) Insert(ctx context.Context, donations []domain.Donation) error {
	if len(donations) == 0 {
		return nil
	}
	_, err := perfmon.Track(ctx, r.rec, insertDonation, map[string]any{"rows": len(donations)}, func(ctx context.Context) (struct{}, error) {
		tx, err := r.write.BeginTxx(ctx, nil)
		if err != nil {
			return struct{}{}, err
		}
		defer tx.Rollback() //nolint:errcheck

		stmt, err := tx.PrepareNamedContext(ctx, insertDonation)
		if err != nil {
			return struct{}{}, err
		}
		defer stmt.Close() //nolint:errcheck

		for _, d := range donations {
			if _, err := stmt.ExecContext(ctx, toRow(d)); err != nil {
				return struct{}{}, fmt.Errorf("insert donation %s: %w", d.ID, err)
			}
		}
		return struct{}{}, tx.Commit()
	})
	return dberr.Wrap("insert donations", err)
}

func toRow(d domain.Donation) donationRow {
	status, freq := d.Status, d.Frequency
	if status == "" {
		status = "completed"
	}
	if freq == "" {
		freq = "one_time"
	}
	return donationRow{
		ID:            d.ID,
		DonorID:       d.DonorID,
		CampaignID:    d.CampaignID,
		FundID:        d.FundID,
		Amount:        d.Amount,
		Status:        status,
		PaymentMethod: d.PaymentMethod,
		Frequency:     freq,
		DonatedAt:     d.DonatedAt.UTC().Format(filter.TimeLayout),
	}
}
