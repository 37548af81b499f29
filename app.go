package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"customerdash/backend/blob"
	"customerdash/backend/config"
	"customerdash/backend/database"
	"customerdash/backend/metrics"
	"customerdash/backend/services"
	"customerdash/backend/store"
)

// app is the wired service graph shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	backend  *database.Backend
	blobs    blob.Store
	store    *store.Store
	uploads  *store.UploadLog
	imports  *services.ImportService
	filters  *services.FilterService
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	backend, err := database.Open(ctx, database.Settings{
		Driver:        cfg.Database.Driver,
		Path:          cfg.Database.Path,
		URL:           cfg.Database.URL,
		EncryptionKey: cfg.Database.EncryptionKey,
		Environment:   cfg.Environment,
		SeedSamples:   cfg.Database.SeedSamples,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	blobs, err := blob.Open(ctx, blob.Config{
		Driver: cfg.Blob.Driver,
		Root:   cfg.Blob.Root,
		S3:     cfg.Blob.S3,
	})
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	st := store.New(ctx, backend,
		store.WithKey(cfg.Store.DatasetKey),
		store.WithLogger(logger.Named("store")),
		store.WithMetrics(m))
	uploads := store.NewUploadLog(backend, logger.Named("uploads"))

	importOpts := []services.ImportOption{
		services.WithPreservedIDs(cfg.Import.PreserveSheetIDs),
		services.WithImportLogger(logger.Named("import")),
		services.WithImportMetrics(m),
	}
	if blobs != nil {
		importOpts = append(importOpts, services.WithArchive(blobs))
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		metrics:  m,
		backend:  backend,
		blobs:    blobs,
		store:    st,
		uploads:  uploads,
		imports:  services.NewImportService(st, uploads, importOpts...),
		filters:  services.NewFilterService(backend),
	}, nil
}

func (a *app) Close() error {
	return a.backend.Close()
}
