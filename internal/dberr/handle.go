package dberr

import (
	"context"
	"encoding/json"
	"log/slog"

	"donor-analytics/internal/redact"
)

// Operation describes the call being guarded, for logging.
type Operation struct {
	Name      string
	RequestID string
	Params    any
}

// Result is either the data of a successful operation or the classified
// failure response.
type Result[T any] struct {
	Data    T
	Failure *Response
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool { return r.Failure == nil }

// MarshalJSON renders {"success":true,"data":...} or the failure response.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Failure != nil {
		return json.Marshal(r.Failure)
	}
	return json.Marshal(struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}{Success: true, Data: r.Data})
}

// WithErrorHandling runs fn and converts a failure into a classified
// response. The failure is logged with redacted parameters; the caller only
// sees the user-safe message.
func WithErrorHandling[T any](ctx context.Context, logger *slog.Logger, op Operation, fn func(context.Context) (T, error)) Result[T] {
	data, err := fn(ctx)
	if err == nil {
		return Result[T]{Data: data}
	}

	resp := NewErrorResponse(err, op.RequestID)
	if logger != nil {
		logger.ErrorContext(ctx, InternalMessage(resp.Type),
			"operation", op.Name,
			"kind", string(resp.Type),
			"request_id", op.RequestID,
			"params", redact.Params(op.Params),
			"error", redact.String(err.Error()),
		)
	}
	return Result[T]{Failure: resp}
}
