package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pagecurl-labs/flipbookd/internal/config"
	"github.com/pagecurl-labs/flipbookd/internal/domain"
	"github.com/pagecurl-labs/flipbookd/internal/gcp"
	"github.com/pagecurl-labs/flipbookd/internal/jobs"
	"github.com/pagecurl-labs/flipbookd/internal/rasterize"
	"github.com/pagecurl-labs/flipbookd/internal/server"
	"github.com/pagecurl-labs/flipbookd/internal/services"
	"github.com/pagecurl-labs/flipbookd/internal/store"
)

func main() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// A .env file is optional; deployments set the environment directly.
	_ = godotenv.Load()

	if err := run(logger); err != nil {
		logger.Error("Server exited with error.", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	artifacts, err := newArtifactStore(ctx, cfg)
	if err != nil {
		return err
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return err
	}
	defer firestoreClient.Close()
	records := store.NewFirestore(firestoreClient, cfg.PublicCollection, cfg.PendingCollection)

	registry := jobs.NewRegistry(cfg.JobTTL, logger)
	go registry.Start(ctx)

	renderer := rasterize.NewRenderer(cfg.RenderScale, cfg.JPEGQuality)
	pipeline := services.NewPipeline(artifacts, records, renderer, logger)
	tiers := services.NewTierManager(artifacts, records, pipeline, logger)

	handler := server.NewHandler(registry, pipeline, tiers, records, cfg.MaxUploadMB, logger)

	// No write timeout: processing streams stay open for the full length of
	// a conversion.
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.NewRouter(handler),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening.", "addr", cfg.HTTPAddr, "storageBackend", cfg.StorageBackend, "bucket", cfg.Bucket)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed. Forcing close.", "error", err)
		return srv.Close()
	}

	logger.Info("Server stopped.")
	return nil
}

// newArtifactStore selects the blob backend from configuration: Cloud
// Storage by default, an S3-compatible service when requested.
func newArtifactStore(ctx context.Context, cfg *config.Config) (domain.ArtifactStore, error) {
	switch cfg.StorageBackend {
	case config.BackendS3:
		return store.NewS3(ctx, store.S3Options{
			Bucket:    cfg.Bucket,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		client, err := gcp.NewStorageClient(ctx)
		if err != nil {
			return nil, err
		}
		return store.NewGCS(client, cfg.Bucket), nil
	}
}
