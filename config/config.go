// Package config loads service settings from an optional YAML file and
// the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"customerdash/backend/blob"
)

// Config is the complete service configuration.
type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"logLevel"`
	// StaticDir holds the built frontend. Empty disables static serving.
	StaticDir string `yaml:"staticDir"`

	Database DatabaseConfig `yaml:"database"`
	Store    StoreConfig    `yaml:"store"`
	Import   ImportConfig   `yaml:"import"`
	Blob     BlobConfig     `yaml:"blob"`
	Backup   BackupConfig   `yaml:"backup"`
	CORS     CORSConfig     `yaml:"cors"`
	Auth     AuthConfig     `yaml:"auth"`
}

type DatabaseConfig struct {
	Driver        string `yaml:"driver"` // sqlite, postgres or memory
	Path          string `yaml:"path"`
	URL           string `yaml:"url"`
	EncryptionKey string `yaml:"encryptionKey"`
	SeedSamples   bool   `yaml:"seedSamples"`
}

type StoreConfig struct {
	DatasetKey string `yaml:"datasetKey"`
}

type ImportConfig struct {
	PreserveSheetIDs bool  `yaml:"preserveSheetIds"`
	MaxUploadBytes   int64 `yaml:"maxUploadBytes"`
}

type BlobConfig struct {
	Driver string        `yaml:"driver"` // empty disables archiving and backups
	Root   string        `yaml:"root"`
	S3     blob.S3Config `yaml:"s3"`
}

type BackupConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// AuthConfig holds Firebase Admin SDK credentials. With none set the
// service runs without token verification.
type AuthConfig struct {
	ProjectID         string `yaml:"projectId"`
	CredentialsJSON   string `yaml:"credentialsJson"`
	CredentialsBase64 string `yaml:"credentialsBase64"`
	CredentialsFile   string `yaml:"credentialsFile"`
}

// HasCredentials reports whether any Firebase credential is configured.
func (a AuthConfig) HasCredentials() bool {
	return a.CredentialsJSON != "" || a.CredentialsBase64 != "" || a.CredentialsFile != ""
}

// Default returns a configuration that runs a local development server on
// SQLite.
func Default() *Config {
	return &Config{
		Port:        "8080",
		Environment: "development",
		LogLevel:    "info",
		StaticDir:   "./dist",
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "./database.db",
		},
		Store: StoreConfig{
			DatasetKey: "customers",
		},
		Import: ImportConfig{
			MaxUploadBytes: 10 << 20,
		},
		Blob: BlobConfig{
			Root: "./blobdata",
		},
		Backup: BackupConfig{
			Interval: 24 * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://localhost:3000",
				"http://localhost:8080",
			},
		},
	}
}

// Load reads path when given, then applies environment overrides. A path
// that does not exist is an error; an empty path uses defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "sqlite", "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be sqlite, postgres or memory, got %q", c.Database.Driver))
	}
	if c.Blob.Driver == "s3" && c.Blob.S3.Bucket == "" {
		errs = append(errs, errors.New("blob.s3.bucket is required for the s3 driver"))
	}
	if c.Backup.Enabled {
		if c.Blob.Driver == "" {
			errs = append(errs, errors.New("backup.enabled requires a blob driver"))
		}
		if c.Backup.Interval <= 0 {
			errs = append(errs, errors.New("backup.interval must be positive"))
		}
	}
	if c.Import.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("import.maxUploadBytes must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("PORT", &c.Port)
	str("APP_ENV", &c.Environment)
	str("LOG_LEVEL", &c.LogLevel)
	str("STATIC_DIR", &c.StaticDir)

	str("DB_DRIVER", &c.Database.Driver)
	str("DB_PATH", &c.Database.Path)
	str("ENCRYPTION_KEY", &c.Database.EncryptionKey)
	boolean("SEED_SAMPLES", &c.Database.SeedSamples)
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		c.Database.URL = v
		if _, set := lookup("DB_DRIVER"); !set {
			c.Database.Driver = "postgres"
		}
	}

	str("DATASET_KEY", &c.Store.DatasetKey)
	boolean("IMPORT_PRESERVE_SHEET_IDS", &c.Import.PreserveSheetIDs)

	str("BLOB_DRIVER", &c.Blob.Driver)
	str("BLOB_ROOT", &c.Blob.Root)
	str("BLOB_S3_BUCKET", &c.Blob.S3.Bucket)
	str("BLOB_S3_REGION", &c.Blob.S3.Region)
	str("BLOB_S3_ENDPOINT", &c.Blob.S3.Endpoint)
	boolean("BLOB_S3_PATH_STYLE", &c.Blob.S3.PathStyle)

	boolean("BACKUP_ENABLED", &c.Backup.Enabled)
	if v, ok := lookup("BACKUP_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("BACKUP_INTERVAL: %w", err))
		} else {
			c.Backup.Interval = d
		}
	}

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORS.AllowedOrigins = origins
	}

	str("FIREBASE_PROJECT_ID", &c.Auth.ProjectID)
	str("FIREBASE_SERVICE_ACCOUNT_JSON", &c.Auth.CredentialsJSON)
	str("FIREBASE_SERVICE_ACCOUNT_BASE64", &c.Auth.CredentialsBase64)
	str("FIREBASE_SERVICE_ACCOUNT", &c.Auth.CredentialsFile)

	return errors.Join(errs...)
}
