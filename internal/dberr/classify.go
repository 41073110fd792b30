package dberr

import "net/http"

// Kind is the user-facing error taxonomy.
type Kind string

// Error kinds.
const (
	KindConnection Kind = "CONNECTION"
	KindValidation Kind = "VALIDATION"
	KindTimeout    Kind = "TIMEOUT"
	KindQuery      Kind = "QUERY"
	KindUnknown    Kind = "UNKNOWN"
)

// Kinds lists every kind in classification priority order.
var Kinds = []Kind{KindConnection, KindValidation, KindTimeout, KindQuery, KindUnknown}

// Classify maps err onto the taxonomy. Categories are checked in priority
// order: connection, validation, timeout, query; anything else is unknown.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	switch Categorize(err) {
	case CategoryConnection:
		return KindConnection
	case CategoryValidation:
		return KindValidation
	case CategoryTimeout:
		return KindTimeout
	case CategoryQuery:
		return KindQuery
	default:
		return KindUnknown
	}
}

// StatusCode returns the HTTP status every layer must use for kind.
func StatusCode(kind Kind) int {
	switch kind {
	case KindConnection:
		return http.StatusServiceUnavailable
	case KindValidation:
		return http.StatusBadRequest
	case KindTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
