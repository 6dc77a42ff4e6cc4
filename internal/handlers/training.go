package handlers

import (
	"net/http"

	"hse-portal/internal/contextutil"
	"hse-portal/internal/service"
)

// TrainingHandler serves the training document routes.
type TrainingHandler struct {
	training service.TrainingService
	// lenientDelete answers ok even when the id matched nothing.
	lenientDelete bool
}

// NewTrainingHandler creates a TrainingHandler.
func NewTrainingHandler(training service.TrainingService, lenientDelete bool) *TrainingHandler {
	return &TrainingHandler{
		training:      training,
		lenientDelete: lenientDelete,
	}
}

// Get handles GET /api/training.
func (h *TrainingHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := h.training.Get(ctx)
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, doc)
}

// Create handles POST /api/training with an addModule or addRecord action.
func (h *TrainingHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	body, err := decodeRecord(r)
	if err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	action, err := service.ParseTrainingAction(body)
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}

	doc, err := h.training.Apply(ctx, action)
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, doc)
}

// Update handles PUT /api/training/{id}.
func (h *TrainingHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	patch, err := decodeRecord(r)
	if err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rec, err := h.training.Update(ctx, idParam(r), patch)
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, rec)
}

// Delete handles DELETE /api/training/{id}.
func (h *TrainingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	removed, err := h.training.Delete(ctx, idParam(r))
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	if !removed && !h.lenientDelete {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, OKResponse{OK: true})
}
