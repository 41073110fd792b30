package perfmon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	query   string
	elapsed time.Duration
	params  any
	err     error
}

type captureRecorder struct {
	mu    sync.Mutex
	calls []call
}

func (c *captureRecorder) RecordQueryExecution(query string, elapsed time.Duration, params any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{query, elapsed, params, err})
}

func TestTrack_Success(t *testing.T) {
	rec := &captureRecorder{}
	got, err := Track(context.Background(), rec, "SELECT 1", []any{1}, func(context.Context) (int, error) {
		time.Sleep(5 * time.Millisecond)
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "SELECT 1", rec.calls[0].query)
	assert.GreaterOrEqual(t, rec.calls[0].elapsed, 5*time.Millisecond)
	assert.Equal(t, []any{1}, rec.calls[0].params)
	assert.NoError(t, rec.calls[0].err)
}

func TestTrack_ErrorForwardedUnchanged(t *testing.T) {
	rec := &captureRecorder{}
	sentinel := errors.New("no such table: donations")

	_, err := Track(context.Background(), rec, "SELECT * FROM donations", nil, func(context.Context) (string, error) {
		return "", sentinel
	})

	assert.Same(t, sentinel, err)
	require.Len(t, rec.calls, 1)
	assert.Same(t, sentinel, rec.calls[0].err)
}

func TestTrack_RecordsOnPanic(t *testing.T) {
	rec := &captureRecorder{}

	assert.PanicsWithValue(t, "driver bug", func() {
		_, _ = Track(context.Background(), rec, "SELECT 1", nil, func(context.Context) (int, error) {
			panic("driver bug")
		})
	})
	require.Len(t, rec.calls, 1)
	var perr *PanicError
	require.ErrorAs(t, rec.calls[0].err, &perr)
	assert.Equal(t, "driver bug", perr.Value)
}

func TestTrack_PanicStoredAsFailed(t *testing.T) {
	m := New(testConfig(), nil)

	assert.Panics(t, func() {
		_, _ = Track(context.Background(), m, "SELECT 1", nil, func(context.Context) (int, error) {
			panic("driver bug")
		})
	})
	history := m.History()
	require.Len(t, history, 1)
	assert.True(t, history[0].Failed)
}

func TestTrackSpan_ExcludesConsumerTime(t *testing.T) {
	rec := &captureRecorder{}

	n, err := TrackSpan(context.Background(), rec, "SELECT * FROM donations", nil, func(_ context.Context, span *Span) (int, error) {
		for i := 0; i < 3; i++ {
			if err := span.Exclude(func() error {
				time.Sleep(20 * time.Millisecond)
				return nil
			}); err != nil {
				return i, err
			}
		}
		return 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, rec.calls, 1)
	assert.Less(t, rec.calls[0].elapsed, 60*time.Millisecond)
}

func TestSpan_ExcludeReturnsError(t *testing.T) {
	sentinel := errors.New("client gone")
	span := &Span{}

	assert.Same(t, sentinel, span.Exclude(func() error { return sentinel }))
	assert.Positive(t, span.excluded)
}

func TestTrack_MeasuresCancelledCall(t *testing.T) {
	rec := &captureRecorder{}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := Track(ctx, rec, "SELECT slow", nil, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, rec.calls, 1)
	assert.GreaterOrEqual(t, rec.calls[0].elapsed, 10*time.Millisecond)
}

func TestTrack_FeedsMonitor(t *testing.T) {
	m := New(testConfig(), nil)
	_, _ = Track(context.Background(), m, "SELECT 1", nil, func(context.Context) (int, error) { return 1, nil })
	_, _ = Track(context.Background(), m, "SELECT 2", nil, func(context.Context) (int, error) {
		return 0, errors.New("boom")
	})

	assert.Equal(t, 2, m.PerformanceStatistics().TotalQueries)
}

func TestTee(t *testing.T) {
	a, b := &captureRecorder{}, &captureRecorder{}
	r := Tee(a, nil, b)
	r.RecordQueryExecution("SELECT 1", time.Millisecond, nil, nil)

	assert.Len(t, a.calls, 1)
	assert.Len(t, b.calls, 1)
}
