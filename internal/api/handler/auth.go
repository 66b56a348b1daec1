package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/datamatch/datamatch/internal/api/response"
	"github.com/datamatch/datamatch/internal/auth"
)

// AuthHandler handles token endpoints.
type AuthHandler struct {
	authService *auth.Service
	logger      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *auth.Service, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// IssueToken handles POST /v1/auth/token - mint an access token for an
// existing profile.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req auth.TokenRequest
	if !response.Decode(w, r, &req) {
		return
	}

	token, err := h.authService.IssueToken(r.Context(), req.ProfileID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	response.JSON(w, r, http.StatusOK, token)
}
