package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donor-analytics/internal/domain"
)

func TestToSQL_MatchesAll(t *testing.T) {
	where, args, err := ToSQL(domain.Predicate{}, DonationColumns)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestToSQL_RendersConjunction(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	p := Compile(domain.UniversalFilter{
		DateRange:   &domain.DateRange{Start: &start},
		CampaignIDs: []string{"c1", "c2"},
		Amount:      &domain.AmountRange{Min: ptrDec("0"), Max: ptrDec("99.5")},
	})

	where, args, err := ToSQL(p, DonationColumns)
	require.NoError(t, err)
	assert.Equal(t, "donated_at >= ? AND campaign_id IN (?) AND amount >= ? AND amount <= ?", where)
	require.Len(t, args, 4)
	assert.Equal(t, "2024-05-01 08:30:00", args[0])
	assert.Equal(t, []any{"c1", "c2"}, args[1])
	assert.Equal(t, 0.0, args[2])
	assert.Equal(t, 99.5, args[3])
}

func TestToSQL_QualifiedColumns(t *testing.T) {
	cols := Columns{domain.FieldStatus: "d.status"}
	p := Compile(domain.UniversalFilter{Statuses: []string{"completed"}})

	where, _, err := ToSQL(p, cols)
	require.NoError(t, err)
	assert.Equal(t, "d.status IN (?)", where)
}

func TestToSQL_UnmappedField(t *testing.T) {
	p := Compile(domain.UniversalFilter{Statuses: []string{"completed"}})

	_, _, err := ToSQL(p, Columns{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status")
}

func TestToSQL_UnsupportedOperator(t *testing.T) {
	p := domain.Predicate{Clauses: []domain.Clause{{Field: domain.FieldStatus, Operator: "LIKE", Value: "x"}}}

	_, _, err := ToSQL(p, DonationColumns)
	require.Error(t, err)
}

func TestToSQL_SubSecondBoundsNeverLoosen(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 500_000_000, time.UTC)
	end := time.Date(2024, 1, 1, 18, 0, 0, 900_000_000, time.UTC)
	p := Compile(domain.UniversalFilter{DateRange: &domain.DateRange{Start: &start, End: &end}})

	where, args, err := ToSQL(p, DonationColumns)
	require.NoError(t, err)
	assert.Equal(t, "donated_at >= ? AND donated_at <= ?", where)
	assert.Equal(t, []any{"2024-01-01 10:00:01", "2024-01-01 18:00:00"}, args)
}

func TestToSQL_WholeSecondBoundsUnchanged(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	p := Compile(domain.UniversalFilter{DateRange: &domain.DateRange{Start: &start}})

	_, args, err := ToSQL(p, DonationColumns)
	require.NoError(t, err)
	assert.Equal(t, []any{"2024-01-01 09:00:00"}, args)
}
