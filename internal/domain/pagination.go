package domain

import (
	"encoding/base64"
	"strconv"
)

// DefaultPageSize is used when a listing does not ask for a size.
const DefaultPageSize = 100

// MaxPageSize caps a single page of donations.
const MaxPageSize = 1000

// PageRequest holds pagination parameters for donation listings.
type PageRequest struct {
	MaxResults int
	PageToken  string // base64-encoded row offset
}

// Offset decodes the page token. Invalid or empty tokens start at zero.
func (p PageRequest) Offset() int {
	if p.PageToken == "" {
		return 0
	}
	raw, err := base64.RawURLEncoding.DecodeString(p.PageToken)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Limit clamps MaxResults to [1, MaxPageSize].
func (p PageRequest) Limit() int {
	switch {
	case p.MaxResults <= 0:
		return DefaultPageSize
	case p.MaxResults > MaxPageSize:
		return MaxPageSize
	default:
		return p.MaxResults
	}
}

// NextPageToken returns the token for the page after offset+limit, or "" on
// the last page.
func NextPageToken(offset, limit int, total int64) string {
	next := offset + limit
	if int64(next) >= total {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(next)))
}
