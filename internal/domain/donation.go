package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Donation is a single gift recorded against a campaign and fund.
type Donation struct {
	ID            string          `json:"id" db:"id"`
	DonorID       string          `json:"donor_id" db:"donor_id"`
	CampaignID    string          `json:"campaign_id" db:"campaign_id"`
	FundID        string          `json:"fund_id" db:"fund_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Status        string          `json:"status" db:"status"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Frequency     string          `json:"frequency" db:"frequency"`
	DonatedAt     time.Time       `json:"donated_at" db:"donated_at"`
}

// DonationSummary aggregates donations matched by a filter.
type DonationSummary struct {
	Count         int64            `json:"count"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	AverageAmount decimal.Decimal  `json:"average_amount"`
	UniqueDonors  int64            `json:"unique_donors"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// DonationPage is one page of a filtered donation listing.
type DonationPage struct {
	Donations     []Donation `json:"donations"`
	Total         int64      `json:"total"`
	NextPageToken string     `json:"next_page_token,omitempty"`
}
