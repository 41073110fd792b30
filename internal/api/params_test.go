package api

import (
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donor-analytics/internal/domain"
)

// === ParseFilter ===

func TestParseFilter_Empty(t *testing.T) {
	t.Parallel()
	f, err := ParseFilter(url.Values{})
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())
}

func TestParseFilter_Dates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		start     string
		end       string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "date only end covers the day",
			start:     "2025-03-01",
			end:       "2025-03-31",
			wantStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "rfc3339 normalised to utc",
			start:     "2025-03-01T10:00:00+02:00",
			end:       "2025-03-01T12:00:00Z",
			wantStart: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, err := ParseFilter(url.Values{"start_date": {tt.start}, "end_date": {tt.end}})
			require.NoError(t, err)
			require.NotNil(t, f.DateRange)
			assert.True(t, tt.wantStart.Equal(*f.DateRange.Start), "start %v", f.DateRange.Start)
			assert.True(t, tt.wantEnd.Equal(*f.DateRange.End), "end %v", f.DateRange.End)
		})
	}
}

func TestParseFilter_Lists(t *testing.T) {
	t.Parallel()
	q := url.Values{
		"campaign_ids": {"spring, gala", "winter"},
		"statuses":     {"completed"},
		"fund_ids":     {" , "},
	}
	f, err := ParseFilter(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"spring", "gala", "winter"}, f.CampaignIDs)
	assert.Equal(t, []string{"completed"}, f.Statuses)
	assert.Empty(t, f.FundIDs)
}

func TestParseFilter_Amounts(t *testing.T) {
	t.Parallel()
	f, err := ParseFilter(url.Values{"min_amount": {"0"}, "max_amount": {"99.95"}})
	require.NoError(t, err)
	require.NotNil(t, f.Amount)
	assert.True(t, f.Amount.Min.Equal(decimal.Zero))
	assert.True(t, f.Amount.Max.Equal(decimal.RequireFromString("99.95")))
}

func TestParseFilter_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		q    url.Values
		msg  string
	}{
		{"bad date", url.Values{"start_date": {"03/01/2025"}}, "invalid start_date"},
		{"inverted dates", url.Values{"start_date": {"2025-04-01"}, "end_date": {"2025-03-01"}}, "must not be after"},
		{"bad amount", url.Values{"min_amount": {"ten"}}, "invalid min_amount"},
		{"negative amount", url.Values{"max_amount": {"-1"}}, "must not be negative"},
		{"inverted amounts", url.Values{"min_amount": {"10"}, "max_amount": {"5"}}, "must not exceed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseFilter(tt.q)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Message, tt.msg)
		})
	}
}

// === parsePage / parsePositive ===

func TestParsePage(t *testing.T) {
	t.Parallel()
	p, err := parsePage(url.Values{"limit": {"25"}, "page_token": {"MTA"}})
	require.NoError(t, err)
	assert.Equal(t, 25, p.MaxResults)
	assert.Equal(t, 10, p.Offset())

	_, err = parsePage(url.Values{"limit": {"0"}})
	require.Error(t, err)
}

func TestParsePositive(t *testing.T) {
	t.Parallel()
	n, err := parsePositive(url.Values{}, "window", 60)
	require.NoError(t, err)
	assert.Equal(t, 60, n)

	n, err = parsePositive(url.Values{"window": {"5"}}, "window", 60)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = parsePositive(url.Values{"window": {"-5"}}, "window", 60)
	require.Error(t, err)
}
