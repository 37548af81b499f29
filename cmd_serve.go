package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"customerdash/backend/api"
	"customerdash/backend/middleware"
	"customerdash/backend/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("starting customer dashboard",
		zap.String("environment", cfg.Environment),
		zap.String("database", cfg.Database.Driver),
		zap.String("blob", cfg.Blob.Driver),
		zap.Int("records", len(a.store.Records())))

	fbClient, err := middleware.InitializeFirebase(ctx, cfg.Auth, logger.Named("auth"))
	if err != nil {
		if cfg.IsProduction() {
			return err
		}
		logger.Warn("failed to initialize Firebase, auth token verification is disabled", zap.Error(err))
	}
	if fbClient == nil && cfg.IsProduction() {
		logger.Warn("running in production without token verification")
	}

	staticDir := cfg.StaticDir
	if staticDir != "" {
		if _, err := os.Stat(staticDir); err != nil {
			logger.Info("frontend directory not found, serving API only", zap.String("dir", staticDir))
			staticDir = ""
		}
	}

	server := api.NewServer(api.Deps{
		Store:          a.store,
		Imports:        a.imports,
		Filters:        a.filters,
		Auth:           middleware.NewAuthenticator(middleware.VerifierOrNil(fbClient), logger.Named("auth")),
		Metrics:        a.metrics,
		Gatherer:       a.registry,
		Logger:         logger.Named("http"),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Development:    !cfg.IsProduction(),
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
		StaticDir:      staticDir,
	})

	srv := &http.Server{
		Handler:      server.Handler(),
		Addr:         ":" + cfg.Port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Backup.Enabled && a.blobs != nil {
		backups := services.NewBackupService(a.store, a.blobs, logger.Named("backup"))
		g.Go(func() error {
			<-backups.StartScheduler(gctx, cfg.Backup.Interval)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
		}
		return nil
	})

	return g.Wait()
}
