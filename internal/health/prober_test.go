package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donor-analytics/internal/db"
	"donor-analytics/internal/dberr"
)

func TestSQLProber(t *testing.T) {
	_, readDB := db.OpenTestSQLite(t)
	p := NewSQLProber(readDB)

	pool, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, pool.Size)
	assert.GreaterOrEqual(t, pool.Available, 1)
	assert.Zero(t, pool.Used)
	assert.Zero(t, pool.Pending)
}

func TestSQLProber_ClosedPool(t *testing.T) {
	_, readDB := db.OpenTestSQLite(t)
	require.NoError(t, readDB.Close())

	m := New(NewSQLProber(readDB), Config{}, nil)
	res := m.PerformHealthCheck(context.Background())
	assert.False(t, res.Healthy)
	assert.NotEmpty(t, res.Error)

	_, err := NewSQLProber(readDB).Probe(context.Background())
	assert.Equal(t, dberr.KindConnection, dberr.Classify(err))
}
