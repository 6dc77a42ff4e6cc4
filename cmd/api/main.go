package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hse-portal/internal/config"
	"hse-portal/internal/http"
	"hse-portal/internal/service"
	"hse-portal/internal/storage"
	"hse-portal/internal/uploads"
)

// General API information
//
// JSON API backing the HSE portal: notices, reports, permits to work, chat,
// the PPE stock ledger, training, factories, stats, login and uploads.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: HSE Portal API
//   description: |
//     CRUD over the HSE portal collections, a PPE stock ledger with an issue log,
//     training modules and records, factory headcounts and file uploads.
//   version: 1.0.0
// schemes:
//   - http
// consumes:
//   - application/json
//   - multipart/form-data
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the document store
	backend, err := storage.OpenBackend(cfg.StoreBackend, cfg.DataDir, cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	store := storage.NewStore(backend, cfg.StoreStrict)
	defer func() {
		_ = store.Close()
	}()

	if err := service.RegisterDefaults(store, time.Now()); err != nil {
		log.Fatalf("Failed to register defaults: %v", err)
	}
	if err := store.EnsureDefaults(ctx); err != nil {
		log.Fatalf("Failed to initialize documents: %v", err)
	}
	slog.Info("Store initialized", "backend", cfg.StoreBackend, "data_dir", cfg.DataDir, "db_path", cfg.DBPath, "strict", cfg.StoreStrict)

	files, err := uploads.New(cfg.UploadsDir)
	if err != nil {
		log.Fatalf("Failed to initialize uploads: %v", err)
	}
	slog.Info("Uploads directory ready", "dir", files.Dir())

	// One id source for every collection keeps ids unique process-wide
	ids := service.NewIDSource()

	deps := &http.Deps{
		Collections:           service.NewCollectionService(store, ids),
		Ledger:                service.NewLedgerService(store),
		Training:              service.NewTrainingService(store, ids),
		Factories:             service.NewFactoryService(store),
		Stats:                 service.NewStatsService(store),
		Auth:                  service.NewAuthService(store, cfg.AdminUsername, cfg.AdminPassword),
		Uploads:               files,
		Health:                store,
		MaxBodyBytes:          cfg.MaxBodyBytes,
		LenientTrainingDelete: cfg.TrainingDeleteLenient,
	}

	server := &nethttp.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           http.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("Shutting down API server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", server.Addr)
	slog.Info("Serving uploads", "path", uploads.URLPrefix)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
}
