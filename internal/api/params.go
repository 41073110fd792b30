package api

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"donor-analytics/internal/domain"
)

const dateOnly = "2006-01-02"

// ParseFilter builds a UniversalFilter from query parameters. Dates accept
// RFC 3339 or YYYY-MM-DD; a date-only end_date covers that whole day. Lists
// are comma separated and may also be repeated.
func ParseFilter(q url.Values) (domain.UniversalFilter, error) {
	var f domain.UniversalFilter

	start, err := parseDate(q.Get("start_date"), "start_date", false)
	if err != nil {
		return f, err
	}
	end, err := parseDate(q.Get("end_date"), "end_date", true)
	if err != nil {
		return f, err
	}
	if start != nil && end != nil && start.After(*end) {
		return f, domain.ErrValidation("start_date must not be after end_date")
	}
	if start != nil || end != nil {
		f.DateRange = &domain.DateRange{Start: start, End: end}
	}

	f.CampaignIDs = parseList(q, "campaign_ids")
	f.FundIDs = parseList(q, "fund_ids")
	f.DonorIDs = parseList(q, "donor_ids")
	f.Statuses = parseList(q, "statuses")
	f.PaymentMethods = parseList(q, "payment_methods")
	f.Frequencies = parseList(q, "frequencies")

	lo, err := parseAmount(q.Get("min_amount"), "min_amount")
	if err != nil {
		return f, err
	}
	hi, err := parseAmount(q.Get("max_amount"), "max_amount")
	if err != nil {
		return f, err
	}
	if lo != nil && hi != nil && lo.GreaterThan(*hi) {
		return f, domain.ErrValidation("min_amount must not exceed max_amount")
	}
	if lo != nil || hi != nil {
		f.Amount = &domain.AmountRange{Min: lo, Max: hi}
	}
	return f, nil
}

func parseDate(v, name string, endOfDay bool) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateOnly, v)
	if err != nil {
		return nil, domain.ErrValidation("invalid %s %q: use YYYY-MM-DD or RFC 3339", name, v)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Second)
	}
	return &t, nil
}

func parseList(q url.Values, name string) []string {
	var out []string
	for _, raw := range q[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseAmount(v, name string) (*decimal.Decimal, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, domain.ErrValidation("invalid %s %q", name, v)
	}
	if d.IsNegative() {
		return nil, domain.ErrValidation("%s must not be negative", name)
	}
	return &d, nil
}

// parsePage reads limit and page_token.
func parsePage(q url.Values) (domain.PageRequest, error) {
	p := domain.PageRequest{PageToken: q.Get("page_token")}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, domain.ErrValidation("invalid limit %q", v)
		}
		p.MaxResults = n
	}
	return p, nil
}

// parsePositive reads an optional positive integer parameter.
func parsePositive(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, domain.ErrValidation("invalid %s %q", name, v)
	}
	return n, nil
}
