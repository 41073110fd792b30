package dberr

// RequestType selects the degraded-mode message for a class of request.
type RequestType string

// Request types with dedicated degraded-mode messages.
const (
	RequestAnalytics RequestType = "analytics"
	RequestExport    RequestType = "export"
	RequestDefault   RequestType = "default"
)

var unavailableMessages = map[RequestType]string{
	RequestAnalytics: "Analytics are temporarily unavailable while we restore the database connection. Please try again shortly.",
	RequestExport:    "Data export is temporarily unavailable. Please try again once the database connection is restored.",
	RequestDefault:   "The service is temporarily unavailable due to database connectivity issues. Please try again shortly.",
}

// Unavailable returns the canned response used while the store is known to be
// down. Unrecognised request types get the default message.
func Unavailable(requestType RequestType, requestID string) *Response {
	msg, ok := unavailableMessages[requestType]
	if !ok {
		msg = unavailableMessages[RequestDefault]
	}
	return &Response{
		Success:   false,
		Error:     "Service temporarily unavailable",
		Message:   msg,
		Type:      KindConnection,
		Timestamp: now().UTC().Format(TimestampLayout),
		RequestID: requestID,
	}
}
