package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"hse-portal/internal/service"
	"hse-portal/internal/storage"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testContext() context.Context {
	return context.Background()
}

// newTestStore returns a strict file-backed store seeded with the default documents.
func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	backend, err := storage.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}
	store := storage.NewStore(backend, true)
	if err := service.RegisterDefaults(store, time.Now()); err != nil {
		t.Fatalf("RegisterDefaults() error = %v", err)
	}
	if err := store.EnsureDefaults(testContext()); err != nil {
		t.Fatalf("EnsureDefaults() error = %v", err)
	}
	return store
}
