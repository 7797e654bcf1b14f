package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sopforge/sop-engine/pkg/auth"
	"github.com/sopforge/sop-engine/pkg/services"
)

// SOPHandler serves saved SOP documents.
type SOPHandler struct {
	sops   services.SOPService
	logger *zap.Logger
}

// NewSOPHandler creates a new SOP handler.
func NewSOPHandler(sops services.SOPService, logger *zap.Logger) *SOPHandler {
	return &SOPHandler{
		sops:   sops,
		logger: logger.Named("sop_handler"),
	}
}

// RegisterRoutes registers SOP document endpoints on the mux.
func (h *SOPHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/sops", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/sops/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PATCH /api/sops/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE /api/sops/{id}", authMiddleware.RequireAuth(h.Delete))
}

// List handles GET /api/sops.
func (h *SOPHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.sops.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list SOPs", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"sops": summaries})
}

// Get handles GET /api/sops/{id}.
func (h *SOPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	sop, err := h.sops.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"sop": sop})
}

// UpdateSOPRequest is the PATCH body; absent fields are left unchanged.
type UpdateSOPRequest struct {
	Title            *string `json:"title"`
	GeneratedContent *string `json:"generatedContent"`
}

// Update handles PATCH /api/sops/{id}.
func (h *SOPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateSOPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body")
		return
	}

	content := ""
	if req.GeneratedContent == nil {
		current, err := h.sops.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		content = current.Content
	} else {
		content = *req.GeneratedContent
	}

	sop, err := h.sops.Update(r.Context(), id, req.Title, content)
	if err != nil {
		h.logger.Error("Failed to update SOP",
			zap.String("sop_id", id.String()),
			zap.Error(err))
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"sop": sop})
}

// Delete handles DELETE /api/sops/{id}.
func (h *SOPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.sops.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "SOP deleted successfully"})
}

// parseID extracts and validates the {id} path segment.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}
