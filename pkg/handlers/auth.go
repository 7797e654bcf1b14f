package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sopforge/sop-engine/pkg/apperrors"
	"github.com/sopforge/sop-engine/pkg/audit"
	"github.com/sopforge/sop-engine/pkg/auth"
	"github.com/sopforge/sop-engine/pkg/models"
	"github.com/sopforge/sop-engine/pkg/services"
)

// AuthHandler manages login sessions.
type AuthHandler struct {
	users    services.UserService
	tokens   *auth.TokenService
	sessions *auth.SessionStore
	auditor  *audit.SecurityAuditor
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(users services.UserService, tokens *auth.TokenService, sessions *auth.SessionStore, auditor *audit.SecurityAuditor, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		auditor:  auditor,
		logger:   logger.Named("auth_handler"),
	}
}

// RegisterRoutes registers authentication endpoints on the mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/me", authMiddleware.RequireAuth(h.Me))
}

// userView is the account shape returned to clients.
type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func viewOf(user *models.User) userView {
	return userView{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

// Login handles POST /api/auth/login. The issued token is stored in the
// session cookie for browsers and returned in the body for API clients.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			h.auditor.LogLoginFailure(r.Context(), req.Email, r.RemoteAddr)
		}
		writeServiceError(w, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("Failed to issue session token", zap.Error(err))
		ErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create session")
		return
	}

	if err := h.sessions.Save(w, r, token); err != nil {
		h.logger.Error("Failed to save session cookie", zap.Error(err))
		ErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create session")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  viewOf(user),
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(w, r); err != nil {
		h.logger.Warn("Failed to clear session cookie", zap.Error(err))
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user": viewOf(user)})
}
