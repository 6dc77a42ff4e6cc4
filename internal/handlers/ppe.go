package handlers

import (
	"net/http"

	"hse-portal/internal/contextutil"
	"hse-portal/internal/service"
)

// PPEHandler serves the PPE create route, which doubles as the stock ledger.
type PPEHandler struct {
	ledger      service.LedgerService
	collections service.CollectionService
}

// NewPPEHandler creates a PPEHandler.
func NewPPEHandler(ledger service.LedgerService, collections service.CollectionService) *PPEHandler {
	return &PPEHandler{
		ledger:      ledger,
		collections: collections,
	}
}

// Create handles POST /api/ppe. A body with an action moves stock;
// a body without one adds a new item.
func (h *PPEHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	body, err := decodeRecord(r)
	if err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	action, err := service.ParsePPEAction(body)
	if err != nil {
		writeServiceError(w, ctx, err, "Item not found")
		return
	}

	switch a := action.(type) {
	case nil:
		if err := service.NormalizePPEItem(body); err != nil {
			writeServiceError(w, ctx, err, "Not found")
			return
		}
		rec, err := h.collections.Insert(ctx, service.PPE, body)
		if err != nil {
			writeServiceError(w, ctx, err, "Not found")
			return
		}
		writeJSON(w, ctx, http.StatusOK, rec)
	case service.RestockAction:
		item, err := h.ledger.Restock(ctx, a)
		if err != nil {
			writeServiceError(w, ctx, err, "Item not found")
			return
		}
		writeJSON(w, ctx, http.StatusOK, item)
	case service.IssueAction:
		res, err := h.ledger.Issue(ctx, a)
		if err != nil {
			writeServiceError(w, ctx, err, "Item not found")
			return
		}
		writeJSON(w, ctx, http.StatusOK, res)
	}
}

// Update handles PUT /api/ppe/{id}. A qty in the patch must be a
// non-negative whole number.
func (h *PPEHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	patch, err := decodeRecord(r)
	if err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := service.NormalizePPEItem(patch); err != nil {
		writeServiceError(w, ctx, err, "Item not found")
		return
	}

	rec, err := h.collections.Update(ctx, service.PPE, idParam(r), patch)
	if err != nil {
		writeServiceError(w, ctx, err, "Item not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, rec)
}

// Logs handles GET /api/ppe/logs.
func (h *PPEHandler) Logs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logs, err := h.ledger.Logs(ctx)
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, logs)
}
