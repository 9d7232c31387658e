// Package session is the credential store: it signs officers up and in,
// keeps the live session tokens and tells subscribers when a session changes.
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrInvalidCredentials is returned when the email or password does not match
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned on sign up when the email is already registered
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidToken is returned for unknown, revoked, expired or malformed tokens
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidInput is returned when an email or password fails validation
	ErrInvalidInput = errors.New("invalid email or password")
)

// User is the identity held by the credential store
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a live sign-in
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// EventKind names what happened to a session
type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
	Refreshed EventKind = "token_refreshed"
	Expired   EventKind = "expired"
)

// Event is delivered to every subscriber when a session changes. Token is the
// token the event is about; for Refreshed, Session carries the replacement.
type Event struct {
	Kind    EventKind
	Token   string
	UserID  string
	Session *Session
}

// Subscription is returned by OnSessionChange
type Subscription interface {
	Unsubscribe()
}

// Provider is what the gate needs from a credential store
type Provider interface {
	GetSession(ctx context.Context, token string) (*Session, error)
	OnSessionChange(fn func(Event)) Subscription
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying the session
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by NewContext, if any
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

// TokenFromRequest reads the bearer token from the Authorization header,
// falling back to the access_token query parameter used by websocket clients
func TokenFromRequest(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("access_token")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validate(email, password string) error {
	if !strings.Contains(email, "@") || len(password) < minPasswordLength {
		return ErrInvalidInput
	}
	return nil
}

const minPasswordLength = 6
