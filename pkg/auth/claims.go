// Package auth provides session issuance and validation for sop-engine.
// Tokens are signed locally with the server's session secret and carried in
// either a session cookie (browser flows) or a bearer header (API clients).
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing session claims.
	ClaimsKey contextKey = "claims"
)

// Claims is the session token payload. Subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// GetClaims retrieves session claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// WithClaims returns a context carrying the given session claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// UserIDFromContext extracts the authenticated user's id from context.
// Returns uuid.Nil and false if not authenticated or the subject is not a
// valid UUID.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// IsAdminFromContext reports whether the authenticated user is an admin.
func IsAdminFromContext(ctx context.Context) bool {
	claims, ok := GetClaims(ctx)
	return ok && claims != nil && claims.Role == "ADMIN"
}
