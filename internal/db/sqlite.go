// Package db opens the SQLite donation store and applies its migrations.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3" // register the sqlite3 driver

	"donor-analytics/internal/dberr"
)

// Mode selects write-safety and pool sizing for a SQLite pool.
type Mode string

// Pool modes.
const (
	// ModeWrite serialises writers on a single connection with immediate transactions.
	ModeWrite Mode = "write"
	// ModeRead allows concurrent readers and rejects writes (PRAGMA query_only).
	ModeRead Mode = "read"
)

// DefaultReadPoolSize is used when a read pool is opened with size 0.
const DefaultReadPoolSize = 4

// SQLite DSN parameters for production hardening.
const (
	busyTimeoutMs = "5000"
	synchronous   = "NORMAL"
	journalMode   = "WAL"
	pingTimeout   = 5 * time.Second
)

// OpenSQLite opens a *sql.DB pool for the SQLite file at path. Both modes
// use WAL, a 5s busy timeout, synchronous=NORMAL and foreign keys. Failures
// carry a dberr category so callers can classify them.
func OpenSQLite(path string, mode Mode, maxOpen int) (*sql.DB, error) {
	switch mode {
	case ModeWrite:
		maxOpen = 1
	case ModeRead:
		if maxOpen <= 0 {
			maxOpen = DefaultReadPoolSize
		}
	default:
		return nil, fmt.Errorf("invalid SQLite mode %q: must be %q or %q", mode, ModeRead, ModeWrite)
	}

	pool, err := sql.Open("sqlite3", buildDSN(path, mode))
	if err != nil {
		return nil, dberr.Wrap("open sqlite "+string(mode), err)
	}
	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxOpen)
	pool.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, dberr.Wrap("ping sqlite "+string(mode), err)
	}
	return pool, nil
}

// Pair is a write pool with a single connection and a read pool over the same
// file. Repositories write through Write and query through Read.
type Pair struct {
	Write *sql.DB
	Read  *sql.DB
}

// OpenSQLitePair opens both pools for path. readMaxOpen of 0 uses
// DefaultReadPoolSize.
func OpenSQLitePair(path string, readMaxOpen int) (*Pair, error) {
	w, err := OpenSQLite(path, ModeWrite, 0)
	if err != nil {
		return nil, err
	}
	r, err := OpenSQLite(path, ModeRead, readMaxOpen)
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	return &Pair{Write: w, Read: r}, nil
}

// Close closes both pools.
func (p *Pair) Close() error {
	return errors.Join(p.Read.Close(), p.Write.Close())
}

func buildDSN(path string, mode Mode) string {
	params := url.Values{}
	params.Set("_journal_mode", journalMode)
	params.Set("_busy_timeout", busyTimeoutMs)
	params.Set("_synchronous", synchronous)
	params.Set("_foreign_keys", "on")
	switch mode {
	case ModeWrite:
		params.Set("_txlock", "immediate")
	case ModeRead:
		params.Set("_query_only", "on")
	}
	return path + "?" + params.Encode()
}
