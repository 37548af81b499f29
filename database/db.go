package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"customerdash/backend/migrations"
	"customerdash/backend/security"
	"customerdash/backend/store"
)

// Supported persistence drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Settings selects and configures the persistence backend.
type Settings struct {
	Driver        string
	Path          string // SQLite file, ":memory:" for an in-process database
	URL           string // Postgres connection string
	EncryptionKey string
	Environment   string
	SeedSamples   bool
}

// Backend is an opened persistence backend. It satisfies store.Storage.
type Backend struct {
	store.Storage
	db   *sql.DB
	keys func(context.Context) ([]string, error)
}

// Keys lists the stored collections in key order.
func (b *Backend) Keys(ctx context.Context) ([]string, error) {
	return b.keys(ctx)
}

// DB returns the underlying database handle, or nil for the memory driver.
func (b *Backend) DB() *sql.DB { return b.db }

// Close releases the database handle.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Open connects to the configured backend, runs migrations and wraps the
// result with encryption when a key is configured.
func Open(ctx context.Context, s Settings, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		db  *sql.DB
		err error
	)
	switch s.Driver {
	case DriverMemory:
		mem := NewMemoryStore()
		b, err := wrap(&Backend{Storage: mem, keys: mem.Keys}, s, logger)
		if err != nil {
			return nil, err
		}
		if _, err := migrations.SeedSampleCustomers(ctx, migrations.Options{
			Environment: s.Environment,
			SeedSamples: s.SeedSamples,
			Storage:     b.Storage,
			Logger:      logger,
		}); err != nil {
			return nil, err
		}
		return b, nil
	case DriverPostgres:
		db, err = OpenPostgres(ctx, s.URL, logger)
	case DriverSQLite, "":
		db, err = OpenSQLite(ctx, s.Path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", s.Driver)
	}
	if err != nil {
		return nil, err
	}

	kv := NewSQLStore(db)
	b, err := wrap(&Backend{Storage: kv, db: db, keys: kv.Keys}, s, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := migrations.Run(ctx, db, migrations.Options{
		Environment: s.Environment,
		SeedSamples: s.SeedSamples,
		Storage:     b.Storage,
		Logger:      logger,
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return b, nil
}

func wrap(b *Backend, s Settings, logger *zap.Logger) (*Backend, error) {
	if s.EncryptionKey == "" {
		return b, nil
	}
	c, err := security.NewCipher(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption: %w", err)
	}
	logger.Info("stored values will be encrypted")
	b.Storage = NewEncryptedStorage(b.Storage, c)
	return b, nil
}

// OpenSQLite opens a SQLite database tuned for a small number of concurrent
// writers.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = "./database.db"
	}

	dsn := path + "?_journal=WAL&_timeout=10000&_busy_timeout=10000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if path == ":memory:" {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Minute * 5)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL;", "PRAGMA busy_timeout=5000;"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return db, nil
}
