package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hse-portal/internal/contextutil"
	"hse-portal/internal/service"
	"hse-portal/internal/storage"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OKResponse acknowledges a mutation that returns no record.
type OKResponse struct {
	OK bool `json:"ok"`
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, ctx context.Context, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// writeServiceError maps service errors to HTTP status codes and responses.
// notFound is the message used for ErrNotFound.
func writeServiceError(w http.ResponseWriter, ctx context.Context, err error, notFound string) {
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		logger.WarnContext(ctx, "validation failed", "error", err)
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, service.ErrNotFound):
		logger.WarnContext(ctx, "record not found", "error", err)
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, service.ErrInsufficientStock):
		logger.WarnContext(ctx, "insufficient stock", "error", err)
		writeError(w, http.StatusBadRequest, "Insufficient stock")
	case errors.Is(err, service.ErrInvalidAction):
		logger.WarnContext(ctx, "unknown action", "error", err)
		writeError(w, http.StatusBadRequest, "Unknown action")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, storage.ErrStorageCorrupt):
		logger.ErrorContext(ctx, "stored document is corrupt", "error", err)
		writeError(w, http.StatusInternalServerError, "Stored data is corrupt")
	default:
		logger.ErrorContext(ctx, "service error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeRecord decodes a JSON object body. An empty body or null decodes to an empty record.
func decodeRecord(r *http.Request) (storage.Record, error) {
	var rec storage.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if rec == nil {
		rec = storage.Record{}
	}
	return rec, nil
}

// idParam returns the {id} URL parameter coerced to a number.
func idParam(r *http.Request) float64 {
	return storage.ParseID(chi.URLParam(r, "id"))
}
