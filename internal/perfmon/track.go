package perfmon

import (
	"context"
	"fmt"
	"time"
)

// Recorder receives one call per completed query execution.
type Recorder interface {
	RecordQueryExecution(query string, elapsed time.Duration, params any, err error)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(query string, elapsed time.Duration, params any, err error)

// RecordQueryExecution calls f.
func (f RecorderFunc) RecordQueryExecution(query string, elapsed time.Duration, params any, err error) {
	f(query, elapsed, params, err)
}

// Tee fans every execution out to each recorder in order.
func Tee(recorders ...Recorder) Recorder {
	return RecorderFunc(func(query string, elapsed time.Duration, params any, err error) {
		for _, r := range recorders {
			if r != nil {
				r.RecordQueryExecution(query, elapsed, params, err)
			}
		}
	})
}

// PanicError is recorded for a tracked call that panicked. The panic itself
// is re-raised after recording.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("query panicked: %v", e.Value) }

// Span lets a tracked call exclude time spent outside the database, such as
// handing rows to a slow consumer. It belongs to one call and is not safe for
// concurrent use.
type Span struct {
	excluded time.Duration
}

// Exclude runs fn and leaves its duration out of the recorded time.
func (s *Span) Exclude(fn func() error) error {
	start := time.Now()
	defer func() { s.excluded += time.Since(start) }()
	return fn()
}

// Track runs fn and records its wall-clock duration with rec, whether fn
// succeeds, fails or panics. The result and error are returned exactly as fn
// produced them. A panic is recorded as a failed execution and re-raised.
// Track enforces no timeout of its own; a call cut short by the driver or ctx
// is recorded with whatever time elapsed.
func Track[T any](ctx context.Context, rec Recorder, query string, params any, fn func(context.Context) (T, error)) (T, error) {
	return TrackSpan(ctx, rec, query, params, func(ctx context.Context, _ *Span) (T, error) {
		return fn(ctx)
	})
}

// TrackSpan is Track for calls that stream results to a consumer. Time spent
// inside Span.Exclude is not attributed to the query.
func TrackSpan[T any](ctx context.Context, rec Recorder, query string, params any, fn func(context.Context, *Span) (T, error)) (result T, err error) {
	span := &Span{}
	start := time.Now()
	defer func() {
		if rec == nil {
			return
		}
		recorded := err
		p := recover()
		if p != nil {
			recorded = &PanicError{Value: p}
		}
		elapsed := time.Since(start) - span.excluded
		if elapsed < 0 {
			elapsed = 0
		}
		rec.RecordQueryExecution(query, elapsed, params, recorded)
		if p != nil {
			panic(p)
		}
	}()
	return fn(ctx, span)
}
