package dberr

import "time"

// TimestampLayout is the ISO-8601 form used on responses.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Response is the user-safe body returned for a failed database operation.
type Response struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Type      Kind   `json:"type"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusCode returns the HTTP status for the response kind.
func (r *Response) StatusCode() int { return StatusCode(r.Type) }

type message struct {
	label    string
	internal string // for logs only
	user     string
}

var messages = map[Kind]message{
	KindConnection: {
		label:    "Database connection error",
		internal: "database connection failed",
		user:     "We're having trouble connecting to the database. Please try again in a few moments.",
	},
	KindValidation: {
		label:    "Invalid request",
		internal: "database rejected the request parameters",
		user:     "The request contains invalid data. Please check your filters and try again.",
	},
	KindTimeout: {
		label:    "Request timeout",
		internal: "database query exceeded its time limit",
		user:     "The request took too long to complete. Try narrowing the date range or filters.",
	},
	KindQuery: {
		label:    "Query error",
		internal: "database query failed",
		user:     "We couldn't complete your request due to a data processing error.",
	},
	KindUnknown: {
		label:    "Internal error",
		internal: "unexpected database error",
		user:     "An unexpected error occurred. Please try again later.",
	},
}

// now is replaced in tests.
var now = time.Now

// NewErrorResponse classifies err and builds the fixed response for its kind.
// The driver's own message never appears in the response.
func NewErrorResponse(err error, requestID string) *Response {
	return responseFor(Classify(err), requestID)
}

// InternalMessage returns the log-only description for kind.
func InternalMessage(kind Kind) string {
	return messages[kind].internal
}

func responseFor(kind Kind, requestID string) *Response {
	m, ok := messages[kind]
	if !ok {
		kind = KindUnknown
		m = messages[KindUnknown]
	}
	return &Response{
		Success:   false,
		Error:     m.label,
		Message:   m.user,
		Type:      kind,
		Timestamp: now().UTC().Format(TimestampLayout),
		RequestID: requestID,
	}
}
