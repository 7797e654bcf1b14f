package auth

import (
	"crypto/sha256"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionName is the name of the login session cookie.
const SessionName = "sop-session"

// sessionKeyToken is the session value key holding the signed token.
const sessionKeyToken = "token"

// SessionStore wraps a cookie-based session store that carries the signed
// session token for browser clients. API clients may instead send the token
// as a bearer header; the middleware accepts both.
type SessionStore struct {
	store *sessions.CookieStore
}

// NewSessionStore builds the cookie store. The secret is SHA-256 hashed to a
// consistent 32-byte signing key so any passphrase works and survives
// restarts. Secure should be true whenever the server is reached over HTTPS.
func NewSessionStore(secret string, maxAge int, secure bool) *SessionStore {
	key := sha256.Sum256([]byte(secret))

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store}
}

// Save writes the signed token into the session cookie.
func (s *SessionStore) Save(w http.ResponseWriter, r *http.Request, token string) error {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		// A stale or tampered cookie decodes with an error but still yields
		// a fresh session; overwrite it.
		session, _ = s.store.New(r, SessionName)
	}
	session.Values[sessionKeyToken] = token
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Token reads the signed token from the session cookie. Returns empty string
// if no valid session cookie is present.
func (s *SessionStore) Token(r *http.Request) string {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		return ""
	}
	token, _ := session.Values[sessionKeyToken].(string)
	return token
}

// Clear expires the session cookie.
func (s *SessionStore) Clear(w http.ResponseWriter, r *http.Request) error {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		session, _ = s.store.New(r, SessionName)
	}
	session.Options.MaxAge = -1
	delete(session.Values, sessionKeyToken)
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
