package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotAuthenticated is returned when no session is present or the stored
// token has expired. Callers must treat it as "log in again", distinct from
// any backend or validator failure.
var ErrNotAuthenticated = errors.New("not authenticated")

// Session is the explicit admin session value passed to API clients. There
// is no ambient token lookup anywhere else in the module.
type Session struct {
	Token   string
	APIBase string
}

// New creates a session from a bearer token and the backend base URL.
func New(token, apiBase string) *Session {
	return &Session{Token: token, APIBase: apiBase}
}

// Valid reports whether the session holds a usable token. A token whose
// registered expiry has passed is rejected locally so an authentication
// error surfaces before a request is wasted. The signature is not checked;
// the backend owns the signing key and will reject anything forged.
func (s *Session) Valid(now time.Time) error {
	if s == nil || s.Token == "" {
		return ErrNotAuthenticated
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(s.Token, &claims); err != nil {
		// Opaque (non-JWT) tokens are passed through; the backend decides.
		return nil
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return ErrNotAuthenticated
	}
	return nil
}

// ExpiresAt returns the token's expiry instant, or the zero time if the
// token is opaque or carries no expiry claim.
func (s *Session) ExpiresAt() time.Time {
	if s == nil || s.Token == "" {
		return time.Time{}
	}
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(s.Token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
