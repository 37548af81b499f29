package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"customerdash/backend/store"
)

// Options carries what individual migrations may need beyond the database.
type Options struct {
	Environment string
	SeedSamples bool
	// Storage is the store.Storage built over the database, used by data
	// migrations so their writes go through encryption like any other.
	Storage store.Storage
	Logger  *zap.Logger
}

// errSkipped marks a migration that chose not to run. It is not recorded,
// so it is considered again on the next start.
var errSkipped = errors.New("migration skipped")

type migration struct {
	name string
	fn   func(context.Context, *sql.DB, Options) error
}

// ordered list of every migration; append only
var all = []migration{
	{"create_kv_store", CreateKVStore},
	{"seed_sample_customers", seedSampleCustomers},
}

// Applied describes one recorded migration.
type Applied struct {
	Name      string    `json:"name"`
	AppliedAt time.Time `json:"appliedAt"`
}

// Run executes all migrations in the correct order
func Run(ctx context.Context, db *sql.DB, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("running migrations")

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range all {
		var count int
		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations WHERE name = $1", m.name).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}

		if count > 0 {
			logger.Debug("skipping already applied migration", zap.String("migration", m.name))
			continue
		}

		logger.Info("applying migration", zap.String("migration", m.name))
		if err := m.fn(ctx, db, opts); err != nil {
			if errors.Is(err, errSkipped) {
				continue
			}
			return fmt.Errorf("failed to apply migration %s: %w", m.name, err)
		}

		if _, err := db.ExecContext(ctx, "INSERT INTO migrations (name) VALUES ($1)", m.name); err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
	}

	logger.Debug("all migrations completed")
	return nil
}

// List returns the recorded migrations in the order they were applied.
func List(ctx context.Context, db *sql.DB) ([]Applied, error) {
	rows, err := db.QueryContext(ctx, "SELECT name, applied_at FROM migrations ORDER BY applied_at, name")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	defer rows.Close()

	var out []Applied
	for rows.Next() {
		var a Applied
		if err := rows.Scan(&a.Name, &a.AppliedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
