package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sopforge/sop-engine/pkg/auth"
	"github.com/sopforge/sop-engine/pkg/services"
)

// APIKeyHandler lets users manage their upstream AI credential.
type APIKeyHandler struct {
	users  services.UserService
	logger *zap.Logger
}

// NewAPIKeyHandler creates a new API key handler.
func NewAPIKeyHandler(users services.UserService, logger *zap.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		users:  users,
		logger: logger.Named("apikey_handler"),
	}
}

// RegisterRoutes registers API key endpoints on the mux.
func (h *APIKeyHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/user/api-key", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/user/api-key", authMiddleware.RequireAuth(h.Update))
}

// Get handles GET /api/user/api-key. The key is only ever returned masked.
func (h *APIKeyHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	masked, err := h.users.MaskedAPIKey(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to fetch API key", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	resp := map[string]any{"hasKey": masked != "", "maskedKey": nil}
	if masked != "" {
		resp["maskedKey"] = masked
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Update handles PUT /api/user/api-key.
func (h *APIKeyHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	if err := h.users.SetAPIKey(r.Context(), userID, req.APIKey); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
