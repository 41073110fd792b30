package perfmon

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"donor-analytics/internal/redact"
)

// maxQueryLen bounds the retained query text.
const maxQueryLen = 2048

// NormalizeQuery collapses whitespace and lower-cases the query so that
// formatting differences group together.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// QueryHash returns a stable 16-hex-digit hash of the normalized query.
func QueryHash(query string) string {
	h := xxhash.Sum64String(NormalizeQuery(query))
	s := strconv.FormatUint(h, 16)
	if len(s) < 16 {
		s = strings.Repeat("0", 16-len(s)) + s
	}
	return s
}

// SanitizeQuery redacts credentials from query text and truncates it.
func SanitizeQuery(query string) string {
	q := redact.String(strings.TrimSpace(query))
	if len(q) > maxQueryLen {
		q = q[:maxQueryLen] + "..."
	}
	return q
}

func sanitizeParams(params any) any {
	if params == nil {
		return nil
	}
	return redact.Params(params)
}
