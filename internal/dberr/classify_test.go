package dberr

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"donor-analytics/internal/domain"
)

type fakeNetErr struct{ timeout bool }

func (e fakeNetErr) Error() string   { return "net failure" }
func (e fakeNetErr) Timeout() bool   { return e.timeout }
func (e fakeNetErr) Temporary() bool { return false }

func TestClassify_Taxonomy(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   Kind
		wantStatus int
	}{
		{"sqlite cannot open", sqlite3.Error{Code: sqlite3.ErrCantOpen}, KindConnection, http.StatusServiceUnavailable},
		{"bad conn wrapped", fmt.Errorf("list donations: %w", driver.ErrBadConn), KindConnection, http.StatusServiceUnavailable},
		{"closed pool", fmt.Errorf("probe: %w", errors.New("sql: database is closed")), KindConnection, http.StatusServiceUnavailable},
		{"tagged connection", &Error{Category: CategoryConnection, Err: errors.New("dial")}, KindConnection, http.StatusServiceUnavailable},
		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, KindValidation, http.StatusBadRequest},
		{"domain validation", domain.ErrValidation("invalid start_date %q", "yesterday"), KindValidation, http.StatusBadRequest},
		{"deadline exceeded", fmt.Errorf("query: %w", context.DeadlineExceeded), KindTimeout, http.StatusRequestTimeout},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, KindTimeout, http.StatusRequestTimeout},
		{"net timeout", fakeNetErr{timeout: true}, KindTimeout, http.StatusRequestTimeout},
		{"sqlite generic", sqlite3.Error{Code: sqlite3.ErrError}, KindQuery, http.StatusInternalServerError},
		{"tagged query", &Error{Category: CategoryQuery, Op: "summary", Err: errors.New("no such column")}, KindQuery, http.StatusInternalServerError},
		{"bare error", errors.New("something odd"), KindUnknown, http.StatusInternalServerError},
		{"nil", nil, KindUnknown, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kind := Classify(tc.err)
			assert.Equal(t, tc.wantKind, kind)
			assert.Equal(t, tc.wantStatus, StatusCode(kind))
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	timeout := fmt.Errorf("slow: %w", context.DeadlineExceeded)
	conn := sqlite3.Error{Code: sqlite3.ErrCantOpen}
	validation := domain.ErrValidation("bad amount")
	query := sqlite3.Error{Code: sqlite3.ErrError}

	assert.Equal(t, KindConnection, Classify(errors.Join(timeout, query, conn)))
	assert.Equal(t, KindValidation, Classify(errors.Join(query, timeout, validation)))
	assert.Equal(t, KindTimeout, Classify(errors.Join(query, timeout)))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("op", nil))

	err := Wrap("list donations", sqlite3.Error{Code: sqlite3.ErrLocked})
	var tagged *Error
	assert.True(t, errors.As(err, &tagged))
	assert.Equal(t, CategoryTimeout, tagged.Category)
	assert.Equal(t, "list donations", tagged.Op)

	// already tagged errors keep their category
	again := Wrap("outer", err)
	assert.Same(t, err, again)
}

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "connection", CategoryConnection.String())
	assert.Equal(t, "unknown", Category(99).String())
}

func TestStatusCode_AllKinds(t *testing.T) {
	want := map[Kind]int{
		KindConnection: 503,
		KindValidation: 400,
		KindTimeout:    408,
		KindQuery:      500,
		KindUnknown:    500,
	}
	for _, k := range Kinds {
		assert.Equal(t, want[k], StatusCode(k), k)
	}
}

func TestNewErrorResponse_NeverLeaksDriverText(t *testing.T) {
	err := fmt.Errorf("open postgres://app:hunter2@db/x: %w", driver.ErrBadConn)
	resp := NewErrorResponse(err, "req-1")

	assert.False(t, resp.Success)
	assert.Equal(t, KindConnection, resp.Type)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.NotContains(t, resp.Message, "hunter2")
	assert.NotContains(t, resp.Error, "postgres://")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode())
}

func TestNewErrorResponse_TimestampRoundTrips(t *testing.T) {
	for _, k := range Kinds {
		resp := responseFor(k, "")
		parsed, err := time.Parse(time.RFC3339Nano, resp.Timestamp)
		if assert.NoError(t, err, k) {
			assert.Equal(t, resp.Timestamp, parsed.Format(TimestampLayout))
		}
	}
}

func TestNewErrorResponse_FreshTimestamp(t *testing.T) {
	orig := now
	t.Cleanup(func() { now = orig })

	now = func() time.Time { return time.Date(2025, 2, 3, 4, 5, 6, 789_000_000, time.UTC) }
	resp := NewErrorResponse(errors.New("x"), "")
	assert.Equal(t, "2025-02-03T04:05:06.789Z", resp.Timestamp)

	now = func() time.Time { return time.Date(2025, 2, 3, 4, 5, 7, 0, time.UTC) }
	resp2 := NewErrorResponse(errors.New("x"), "")
	assert.NotEqual(t, resp.Timestamp, resp2.Timestamp)
}
