package handlers

import (
	"net/http"

	"hse-portal/internal/contextutil"
	"hse-portal/internal/service"
)

// CollectionHandler serves CRUD routes for one list-shaped collection.
type CollectionHandler struct {
	collections service.CollectionService
	name        string
}

// NewCollectionHandler creates a CollectionHandler for the named collection.
func NewCollectionHandler(collections service.CollectionService, name string) *CollectionHandler {
	return &CollectionHandler{
		collections: collections,
		name:        name,
	}
}

// List handles GET /api/{collection}.
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.collections.List(ctx, h.name)
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, list)
}

// Get handles GET /api/{collection}/{id}.
func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.collections.Get(ctx, h.name, idParam(r))
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, rec)
}

// Create handles POST /api/{collection}.
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	body, err := decodeRecord(r)
	if err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.collections.Insert(ctx, h.name, body)
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, rec)
}

// Update handles PUT /api/{collection}/{id}.
func (h *CollectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	patch, err := decodeRecord(r)
	if err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.collections.Update(ctx, h.name, idParam(r), patch)
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, rec)
}

// Delete handles DELETE /api/{collection}/{id}.
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	removed, err := h.collections.Delete(ctx, h.name, idParam(r))
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, OKResponse{OK: true})
}
