package handlers

import (
	"encoding/json"
	"net/http"

	"hse-portal/internal/contextutil"
	"hse-portal/internal/service"
	"hse-portal/internal/storage"
)

// StatsHandler serves the dashboard counters.
type StatsHandler struct {
	stats service.StatsService
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(stats service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Get handles GET /api/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.stats.Get(ctx)
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, stats)
}

// Replace handles PUT /api/stats.
func (h *StatsHandler) Replace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body storage.Stats
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	stats, err := h.stats.Replace(ctx, body)
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, stats)
}
