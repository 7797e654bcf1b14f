package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sopforge/sop-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeServiceError maps service-layer sentinel errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		ErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, apperrors.ErrForbidden):
		ErrorResponse(w, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		ErrorResponse(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, apperrors.ErrSelfDeletion):
		ErrorResponse(w, http.StatusBadRequest, "SELF_DELETION", "You cannot delete your own account")
	case errors.Is(err, apperrors.ErrInvalidInput):
		ErrorResponse(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		ErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
