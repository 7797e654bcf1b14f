package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sopforge/sop-engine/pkg/auth"
	"github.com/sopforge/sop-engine/pkg/services"
)

// UserHandler serves admin account management.
type UserHandler struct {
	users  services.UserService
	logger *zap.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.Named("user_handler"),
	}
}

// RegisterRoutes registers admin account endpoints on the mux.
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/admin/users", authMiddleware.RequireAdmin(h.List))
	mux.HandleFunc("POST /api/admin/users", authMiddleware.RequireAdmin(h.Create))
	mux.HandleFunc("PATCH /api/admin/users/{id}", authMiddleware.RequireAdmin(h.Update))
	mux.HandleFunc("DELETE /api/admin/users/{id}", authMiddleware.RequireAdmin(h.Delete))
}

// List handles GET /api/admin/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, viewOf(&users[i]))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"users": views})
}

type mutateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Create handles POST /api/admin/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req mutateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	user, err := h.users.Create(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"user": viewOf(user)})
}

// Update handles PATCH /api/admin/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req mutateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	user, err := h.users.Update(r.Context(), id, req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user": viewOf(user)})
}

// Delete handles DELETE /api/admin/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
