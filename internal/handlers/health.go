package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"hse-portal/internal/contextutil"
)

// DocumentLister is implemented by the document store.
type DocumentLister interface {
	Names(ctx context.Context) ([]string, error)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	store              DocumentLister
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store DocumentLister) *HealthHandler {
	return &HealthHandler{
		store:              store,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// Number of persisted documents
	Documents int `json:"documents"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles GET /api/health.
// Returns 200 OK if the store answers, 503 Service Unavailable otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]string{"store": "ok"},
	}
	httpStatus := http.StatusOK

	count, ok := h.checkStore(checkCtx, logger)
	if ok {
		response.Documents = count
	} else {
		response.Status = "unhealthy"
		response.Checks["store"] = "error"
		response.Issues = []string{"store_unavailable"}
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, ctx, httpStatus, response)
}

func (h *HealthHandler) checkStore(ctx context.Context, logger *slog.Logger) (int, bool) {
	names, err := h.store.Names(ctx)
	if err != nil {
		logger.WarnContext(ctx, "store health check failed", "error", err)
		return 0, false
	}
	return len(names), true
}
