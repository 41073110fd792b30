package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateRange is an inclusive time window. Either bound may be nil.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// AmountRange holds inclusive amount bounds. A zero Min is a real bound, so
// absence is expressed with nil only.
type AmountRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// UniversalFilter is the declarative filter shared by every donation query.
// The zero value matches all rows.
type UniversalFilter struct {
	DateRange      *DateRange
	CampaignIDs    []string
	FundIDs        []string
	DonorIDs       []string
	Statuses       []string
	PaymentMethods []string
	Frequencies    []string
	Amount         *AmountRange
}

// IsEmpty reports whether the filter places no restriction on rows.
func (f UniversalFilter) IsEmpty() bool {
	if f.DateRange != nil && (f.DateRange.Start != nil || f.DateRange.End != nil) {
		return false
	}
	if f.Amount != nil && (f.Amount.Min != nil || f.Amount.Max != nil) {
		return false
	}
	return len(f.CampaignIDs) == 0 && len(f.FundIDs) == 0 && len(f.DonorIDs) == 0 &&
		len(f.Statuses) == 0 && len(f.PaymentMethods) == 0 && len(f.Frequencies) == 0
}
