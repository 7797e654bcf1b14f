package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Middleware provides HTTP authentication middleware. It is thin and
// delegates token validation to TokenService.
type Middleware struct {
	tokens   *TokenService
	sessions *SessionStore
	logger   *zap.Logger
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(tokens *TokenService, sessions *SessionStore, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokens:   tokens,
		sessions: sessions,
		logger:   logger,
	}
}

// RequireAuth validates the session and sets claims in context for
// downstream handlers. The token is read from the session cookie first, then
// from an Authorization bearer header.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.validate(r)
		if !ok {
			m.unauthorized(w)
			return
		}
		next(w, r.WithContext(WithClaims(r.Context(), claims)))
	}
}

// RequireAdmin validates the session and additionally requires the admin
// role.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.validate(r)
		if !ok {
			m.unauthorized(w)
			return
		}
		if claims.Role != "ADMIN" {
			m.logger.Warn("Non-admin attempted admin endpoint",
				zap.String("subject", claims.Subject),
				zap.String("path", r.URL.Path))
			m.forbidden(w)
			return
		}
		next(w, r.WithContext(WithClaims(r.Context(), claims)))
	}
}

func (m *Middleware) validate(r *http.Request) (*Claims, bool) {
	token := m.sessions.Token(r)
	if token == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
	}
	if token == "" {
		return nil, false
	}

	claims, err := m.tokens.Verify(token)
	if err != nil {
		m.logger.Debug("Session token rejected", zap.Error(err))
		return nil, false
	}
	return claims, true
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "Unauthorized",
		"message": "Authentication required",
	})
}

// forbidden returns a 403 response with JSON error body.
func (m *Middleware) forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "Forbidden",
		"message": "Admin privileges required",
	})
}
