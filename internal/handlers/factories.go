package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hse-portal/internal/contextutil"
	"hse-portal/internal/service"
	"hse-portal/internal/storage"
)

// FactoriesHandler serves the factories map.
type FactoriesHandler struct {
	factories service.FactoryService
}

// NewFactoriesHandler creates a FactoriesHandler.
func NewFactoriesHandler(factories service.FactoryService) *FactoriesHandler {
	return &FactoriesHandler{factories: factories}
}

// Get handles GET /api/factories.
func (h *FactoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	factories, err := h.factories.Get(ctx)
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, factories)
}

// Replace handles POST and PUT /api/factories. The body is either the full
// map or a list of {name, fire, firstAid, manpower} entries.
func (h *FactoriesHandler) Replace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		logger.WarnContext(ctx, "failed to read request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	raw = bytes.TrimSpace(raw)

	var factories storage.Factories
	if len(raw) > 0 && raw[0] == '[' {
		var entries []service.FactoryEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			logger.WarnContext(ctx, "invalid factory list", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		factories, err = h.factories.ReplaceList(ctx, entries)
	} else {
		var body storage.Factories
		if err := json.Unmarshal(raw, &body); err != nil {
			logger.WarnContext(ctx, "invalid factory map", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		factories, err = h.factories.Replace(ctx, body)
	}
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, factories)
}

// Delete handles DELETE /api/factories/{name}.
func (h *FactoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.factories.Delete(ctx, chi.URLParam(r, "name")); err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, OKResponse{OK: true})
}
