package app

import (
	"context"
	"database/sql"
	"log/slog"

	"donor-analytics/internal/db"
)

// checkSchema warns when the store has not been migrated. Queries will fail
// with a classified error until it is, so this is not fatal.
func checkSchema(ctx context.Context, conn *sql.DB, logger *slog.Logger) {
	version, err := db.SchemaVersion(ctx, conn)
	if err != nil {
		logger.Warn("read schema version", "error", err)
		return
	}
	if version == 0 {
		logger.Warn("donation store is not migrated; run the migrate command")
		return
	}
	logger.Debug("schema version", "version", version)
}
