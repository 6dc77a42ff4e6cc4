package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"hse-portal/internal/service"
	"hse-portal/internal/storage"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// withURLParams attaches chi URL parameters to req, as the router would.
func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// newTestStore returns a seeded file-backed store in a temp directory.
func newTestStore(t *testing.T) *storage.Store {
	t.Helper()

	backend, err := storage.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend() error = %v", err)
	}
	store := storage.NewStore(backend, true)
	t.Cleanup(func() { _ = store.Close() })

	if err := service.RegisterDefaults(store, time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)); err != nil {
		t.Fatalf("RegisterDefaults() error = %v", err)
	}
	if err := store.EnsureDefaults(context.Background()); err != nil {
		t.Fatalf("EnsureDefaults() error = %v", err)
	}
	return store
}
