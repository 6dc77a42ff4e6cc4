package handlers

import (
	"net/http"

	"hse-portal/internal/service"
)

// APIIndexResponse describes the API root.
type APIIndexResponse struct {
	OK      bool     `json:"ok"`
	Message string   `json:"message"`
	Modules []string `json:"modules"`
}

// APIIndex handles GET /api.
func APIIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r.Context(), http.StatusOK, APIIndexResponse{
		OK:      true,
		Message: "HSE API running",
		Modules: service.Modules,
	})
}

// Root handles GET / for uptime probes.
func Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("HSE Backend is running successfully!"))
}
