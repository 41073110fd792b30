package health

import (
	"context"
	"database/sql"
	"sync"

	"donor-analytics/internal/dberr"
	"donor-analytics/internal/domain"
)

// SQLProber checks a database/sql pool with a trivial query and reads the
// pool counters from DB.Stats. The pool itself is owned by database/sql.
type SQLProber struct {
	db *sql.DB

	mu       sync.Mutex
	lastWait int64
}

// NewSQLProber returns a prober for db.
func NewSQLProber(db *sql.DB) *SQLProber {
	return &SQLProber{db: db}
}

// Probe runs SELECT 1. Pending is the number of connection waits recorded
// since the previous probe.
func (p *SQLProber) Probe(ctx context.Context) (domain.PoolSnapshot, error) {
	var one int
	if err := p.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return domain.PoolSnapshot{}, dberr.Wrap("health probe", err)
	}

	st := p.db.Stats()
	size := st.MaxOpenConnections
	if size == 0 {
		size = st.OpenConnections
	}

	p.mu.Lock()
	pending := st.WaitCount - p.lastWait
	p.lastWait = st.WaitCount
	p.mu.Unlock()

	return domain.PoolSnapshot{
		Size:      size,
		Available: st.Idle,
		Used:      st.InUse,
		Pending:   int(pending),
	}, nil
}
