package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"go.uber.org/zap"
)

const postgresDriver = "pgx"

// PostgresConfig holds database connection parameters
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultPostgresConfig matches a local development server.
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "postgres",
		DBName:   "customerdash",
		SSLMode:  "disable",
	}
}

// ConnectionString builds a PostgreSQL connection URL
func (cfg PostgresConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(cfg.SSLMode),
	}
	return u.String()
}

// OpenPostgres connects through the pgx database/sql driver.
func OpenPostgres(ctx context.Context, connStr string, logger *zap.Logger) (*sql.DB, error) {
	if connStr == "" {
		connStr = DefaultPostgresConfig().ConnectionString()
	}

	logger.Info("connecting to PostgreSQL", zap.String("dsn", MaskPassword(connStr)))

	db, err := sql.Open(postgresDriver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	logger.Info("connected to PostgreSQL")
	return db, nil
}

// MaskPassword hides the password of a connection URL for logging.
// Strings that are not URLs are returned unchanged.
func MaskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil || u.User == nil {
		return connStr
	}
	return u.Redacted()
}
