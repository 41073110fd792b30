package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestSQLite opens a migrated write/read pool pair in t.TempDir() and
// registers cleanup. Tests that don't need the split can use writeDB for
// everything.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	pair, err := OpenSQLitePair(filepath.Join(t.TempDir(), "test.sqlite"), DefaultReadPoolSize)
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() { _ = pair.Close() })

	if _, err := RunMigrations(context.Background(), pair.Write, nil); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return pair.Write, pair.Read
}
