package filter

import (
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"

	"donor-analytics/internal/domain"
)

func blankSet() *rapid.Generator[[]string] {
	return rapid.SliceOfN(rapid.SampledFrom([]string{"", " ", "\t"}), 0, 4)
}

// Any filter whose sets hold only blank entries compiles to the same
// predicate as the empty filter.
func TestProperty_EmptySetsNeverExclude(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := domain.UniversalFilter{
			CampaignIDs:    blankSet().Draw(rt, "campaigns"),
			FundIDs:        blankSet().Draw(rt, "funds"),
			DonorIDs:       blankSet().Draw(rt, "donors"),
			Statuses:       blankSet().Draw(rt, "statuses"),
			PaymentMethods: blankSet().Draw(rt, "methods"),
			Frequencies:    blankSet().Draw(rt, "frequencies"),
		}
		if !Compile(f).MatchesAll() {
			rt.Fatalf("filter with only empty sets restricted rows: %+v", Compile(f).Clauses)
		}
	})
}

// Any filter with minimum amount 0 keeps its lower bound clause, whatever
// else is set.
func TestProperty_ZeroMinAmountKept(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		zero := decimal.Zero
		f := domain.UniversalFilter{
			Amount:   &domain.AmountRange{Min: &zero},
			Statuses: rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 0, 3).Draw(rt, "statuses"),
		}
		if rapid.Bool().Draw(rt, "withMax") {
			upper := decimal.NewFromInt(rapid.Int64Range(0, 100000).Draw(rt, "max"))
			f.Amount.Max = &upper
		}

		found := false
		for _, c := range Compile(f).ClausesFor(domain.FieldAmount) {
			if c.Operator == domain.OpGreaterEqual {
				found = true
			}
		}
		if !found {
			rt.Fatalf("lower bound clause missing for min amount 0")
		}
	})
}

// Every non-blank identifier appears exactly once in its membership clause.
func TestProperty_MembershipValuesDistinct(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ids := rapid.SliceOfN(rapid.StringMatching(`[a-z0-9]{1,6}`), 1, 10).Draw(rt, "ids")
		p := Compile(domain.UniversalFilter{FundIDs: ids})

		clauses := p.ClausesFor(domain.FieldFundID)
		if len(clauses) != 1 {
			rt.Fatalf("expected one fund clause, got %d", len(clauses))
		}
		seen := map[any]bool{}
		for _, v := range clauses[0].Values {
			if seen[v] {
				rt.Fatalf("duplicate value %v", v)
			}
			seen[v] = true
		}
		for _, id := range ids {
			if !seen[id] {
				rt.Fatalf("value %q missing from clause", id)
			}
		}
	})
}
