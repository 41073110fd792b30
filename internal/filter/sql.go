package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"donor-analytics/internal/domain"
)

// TimeLayout is the text form used for timestamps bound into SQL. Stored
// timestamps use the same layout so that text comparison orders correctly.
// It has second resolution: lower bounds are rounded up to the next whole
// second and upper bounds truncated, so no bound is ever loosened.
const TimeLayout = "2006-01-02 15:04:05"

// Columns maps predicate fields to (possibly qualified) column names.
type Columns map[domain.Field]string

// DonationColumns maps every field onto the donations table.
var DonationColumns = Columns{
	domain.FieldDonatedAt:     "donated_at",
	domain.FieldCampaignID:    "campaign_id",
	domain.FieldFundID:        "fund_id",
	domain.FieldDonorID:       "donor_id",
	domain.FieldStatus:        "status",
	domain.FieldPaymentMethod: "payment_method",
	domain.FieldFrequency:     "frequency",
	domain.FieldAmount:        "amount",
}

// ToSQL renders p as a WHERE-clause body using "?" placeholders.
//
// Membership clauses are rendered as "col IN (?)" with a single slice
// argument; callers expand them with sqlx.In before executing. A predicate
// that matches everything renders as the empty string.
func ToSQL(p domain.Predicate, cols Columns) (string, []any, error) {
	if p.MatchesAll() {
		return "", nil, nil
	}

	parts := make([]string, 0, len(p.Clauses))
	args := make([]any, 0, len(p.Clauses))
	for _, c := range p.Clauses {
		col, ok := cols[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("no column mapped for field %q", c.Field)
		}
		switch c.Operator {
		case domain.OpGreaterEqual:
			parts = append(parts, fmt.Sprintf("%s %s ?", col, c.Operator))
			args = append(args, bindValue(ceilSecond(c.Value)))
		case domain.OpLessEqual:
			parts = append(parts, fmt.Sprintf("%s %s ?", col, c.Operator))
			args = append(args, bindValue(c.Value))
		case domain.OpIn:
			if len(c.Values) == 0 {
				return "", nil, fmt.Errorf("empty membership set for field %q", c.Field)
			}
			values := make([]any, len(c.Values))
			for i, v := range c.Values {
				values[i] = bindValue(v)
			}
			parts = append(parts, col+" IN (?)")
			args = append(args, values)
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", c.Operator)
		}
	}

	return strings.Join(parts, " AND "), args, nil
}

// ceilSecond rounds a sub-second time up to the next whole second.
func ceilSecond(v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if trunc := t.Truncate(time.Second); !trunc.Equal(t) {
		return trunc.Add(time.Second)
	}
	return t
}

func bindValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(TimeLayout)
	case decimal.Decimal:
		return val.InexactFloat64()
	default:
		return v
	}
}
