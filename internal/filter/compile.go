// Package filter compiles declarative donation filters into backend-agnostic
// predicates and renders those predicates as SQL.
package filter

import (
	"strings"

	"donor-analytics/internal/domain"
)

// Compile converts f into a predicate. It is pure: the same filter always
// yields an equal predicate and no I/O is performed.
//
// Absent bounds and empty sets contribute no clause, so the zero filter
// compiles to a predicate that matches every row. A zero minimum amount is a
// present bound.
func Compile(f domain.UniversalFilter) domain.Predicate {
	var clauses []domain.Clause

	if r := f.DateRange; r != nil {
		if r.Start != nil {
			clauses = append(clauses, domain.Clause{
				Field: domain.FieldDonatedAt, Operator: domain.OpGreaterEqual, Value: r.Start.UTC(),
			})
		}
		if r.End != nil {
			clauses = append(clauses, domain.Clause{
				Field: domain.FieldDonatedAt, Operator: domain.OpLessEqual, Value: r.End.UTC(),
			})
		}
	}

	sets := []struct {
		field  domain.Field
		values []string
	}{
		{domain.FieldCampaignID, f.CampaignIDs},
		{domain.FieldFundID, f.FundIDs},
		{domain.FieldDonorID, f.DonorIDs},
		{domain.FieldStatus, f.Statuses},
		{domain.FieldPaymentMethod, f.PaymentMethods},
		{domain.FieldFrequency, f.Frequencies},
	}
	for _, s := range sets {
		if values := distinct(s.values); len(values) > 0 {
			clauses = append(clauses, domain.Clause{
				Field: s.field, Operator: domain.OpIn, Values: values,
			})
		}
	}

	if a := f.Amount; a != nil {
		if a.Min != nil {
			clauses = append(clauses, domain.Clause{
				Field: domain.FieldAmount, Operator: domain.OpGreaterEqual, Value: *a.Min,
			})
		}
		if a.Max != nil {
			clauses = append(clauses, domain.Clause{
				Field: domain.FieldAmount, Operator: domain.OpLessEqual, Value: *a.Max,
			})
		}
	}

	return domain.Predicate{Clauses: clauses}
}

// distinct drops blank entries and duplicates, keeping first-seen order.
func distinct(values []string) []any {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]any, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
