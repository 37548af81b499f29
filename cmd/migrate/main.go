package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"customerdash/backend/config"
	"customerdash/backend/database"
	"customerdash/backend/logging"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "Path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Database.Driver == database.DriverMemory {
		logger.Fatal("the memory driver has nothing to migrate")
	}

	// Opening the backend applies pending migrations.
	ctx := context.Background()
	backend, err := database.Open(ctx, database.Settings{
		Driver:        cfg.Database.Driver,
		Path:          cfg.Database.Path,
		URL:           cfg.Database.URL,
		EncryptionKey: cfg.Database.EncryptionKey,
		Environment:   cfg.Environment,
		SeedSamples:   cfg.Database.SeedSamples,
	}, logger)
	if err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	defer backend.Close()

	applied, err := backend.Migrations(ctx)
	if err != nil {
		logger.Fatal("failed to list migrations", zap.Error(err))
	}
	for _, m := range applied {
		logger.Info("applied", zap.String("migration", m.Name), zap.Time("at", m.AppliedAt))
	}
	keys, err := backend.Keys(ctx)
	if err != nil {
		logger.Fatal("failed to list stored collections", zap.Error(err))
	}
	logger.Info("stored collections", zap.Strings("keys", keys))

	fmt.Println("Migrations completed successfully!")
}
