package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"hse-portal/internal/contextutil"
	"hse-portal/internal/service"
)

// LoginHandler handles POST /api/auth/login.
type LoginHandler struct {
	auth service.AuthService
}

// NewLoginHandler creates a LoginHandler.
func NewLoginHandler(auth service.AuthService) *LoginHandler {
	return &LoginHandler{auth: auth}
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ServeHTTP checks the credentials and returns a token.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		writeServiceError(w, ctx, err, "Not found")
		return
	}
	writeJSON(w, ctx, http.StatusOK, res)
}
