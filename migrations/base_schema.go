package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateKVStore creates the key/value table every persisted collection
// lives in. The DDL is valid for both SQLite and Postgres.
func CreateKVStore(ctx context.Context, db *sql.DB, _ Options) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv_store (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create kv_store table: %w", err)
	}
	return nil
}
