package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"donor-analytics/internal/domain"
)

var (
	seedNamespace = uuid.MustParse("6f1c2d0e-3b5a-4c8e-9a41-2d7e5b9f0c13")

	seedCampaigns = []string{"spring-appeal", "annual-gala", "year-end", "capital-campaign", "giving-tuesday"}
	seedFunds     = []string{"general", "scholarship", "building", "endowment"}
	seedStatuses  = []string{"completed", "completed", "completed", "completed", "pending", "refunded", "failed"}
	seedMethods   = []string{"card", "card", "ach", "check", "paypal"}
	seedFreqs     = []string{"one_time", "one_time", "one_time", "monthly", "annual"}
)

// DonationInserter is the write side needed by SeedDonations.
type DonationInserter interface {
	Summary(ctx context.Context, f domain.UniversalFilter) (*domain.DonationSummary, error)
	Insert(ctx context.Context, donations []domain.Donation) error
}

// GenerateDonations returns n pseudo-random donations spread over the year
// ending at end. The same seed always yields the same rows.
func GenerateDonations(n int, seed uint64, end time.Time) []domain.Donation {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	donors := max(n/4, 1)
	span := int64(365 * 24 * time.Hour / time.Second)
	out := make([]domain.Donation, n)
	for i := range out {
		cents := rng.Int64N(50_000) + 500
		if rng.IntN(20) == 0 {
			cents *= 20
		}
		out[i] = domain.Donation{
			ID:            uuid.NewSHA1(seedNamespace, []byte(strconv.FormatUint(seed, 10)+"/"+strconv.Itoa(i))).String(),
			DonorID:       fmt.Sprintf("donor-%05d", rng.IntN(donors)),
			CampaignID:    pick(rng, seedCampaigns),
			FundID:        pick(rng, seedFunds),
			Amount:        decimal.New(cents, -2),
			Status:        pick(rng, seedStatuses),
			PaymentMethod: pick(rng, seedMethods),
			Frequency:     pick(rng, seedFreqs),
			DonatedAt:     end.Add(-time.Duration(rng.Int64N(span)) * time.Second).UTC().Truncate(time.Second),
		}
	}
	return out
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.IntN(len(from))]
}

// SeedDonations inserts n generated donations in batches. It does nothing
// when the store already holds rows and returns the number inserted.
func SeedDonations(ctx context.Context, store DonationInserter, n int, seed uint64, logger *slog.Logger) (int, error) {
	existing, err := store.Summary(ctx, domain.UniversalFilter{})
	if err != nil {
		return 0, fmt.Errorf("count donations: %w", err)
	}
	if existing.Count > 0 {
		logger.Info("donation store already seeded", "rows", existing.Count)
		return 0, nil
	}

	const batch = 500
	rows := GenerateDonations(n, seed, time.Now())
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))
		if err := store.Insert(ctx, rows[start:end]); err != nil {
			return start, fmt.Errorf("insert donations %d-%d: %w", start, end, err)
		}
	}
	logger.Info("seeded donations", "rows", len(rows), "seed", seed)
	return len(rows), nil
}
