package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/linesmerrill/police-investigations-api/api"
	"github.com/linesmerrill/police-investigations-api/config"
	"github.com/linesmerrill/police-investigations-api/models"
	"github.com/linesmerrill/police-investigations-api/session"
)

// SessionService is the part of the credential store the auth routes use
type SessionService interface {
	session.Provider
	SignIn(ctx context.Context, email, password string) (*session.Session, error)
	Refresh(ctx context.Context, token string) (*session.Session, error)
	SignOut(ctx context.Context, token string) error
}

// AccountService provisions accounts and resets passwords
type AccountService interface {
	SignUp(ctx context.Context, data models.SignUpData) (*models.Officer, error)
	RequestReset(ctx context.Context, email string) error
	ConfirmReset(ctx context.Context, token, password string) error
}

// Auth exported for testing purposes
type Auth struct {
	Sessions SessionService
	Accounts AccountService
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type passwordResetConfirmation struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// SignUpHandler creates the credential and the officer profile
func (a Auth) SignUpHandler(w http.ResponseWriter, r *http.Request) {
	var data models.SignUpData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	officer, err := a.Accounts.SignUp(ctx, data)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrEmailTaken):
			config.ErrorStatus("failed to sign up", http.StatusConflict, w, err)
		case errors.Is(err, session.ErrInvalidInput):
			config.ErrorStatus("failed to sign up", http.StatusBadRequest, w, err)
		default:
			config.ErrorStatus("failed to sign up", http.StatusInternalServerError, w, err)
		}
		return
	}
	zap.S().Infow("officer signed up", "userId", officer.ID)

	writeJSON(w, http.StatusCreated, models.MessageResponse{
		Message:  "Account created successfully! Please sign in.",
		Redirect: api.SignInPath,
	})
}

// CreateTokenHandler signs in with basic auth and returns a session
func (a Auth) CreateTokenHandler(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		config.ErrorStatus("basic auth failed", http.StatusUnauthorized, w, session.ErrInvalidCredentials)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sess, err := a.Sessions.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			config.ErrorStatus("failed to sign in", http.StatusUnauthorized, w, err)
			return
		}
		config.ErrorStatus("failed to sign in", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// RefreshTokenHandler swaps the caller's token for a fresh one
func (a Auth) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sess, err := a.Sessions.Refresh(ctx, session.TokenFromRequest(r))
	if err != nil {
		if errors.Is(err, session.ErrInvalidToken) {
			config.ErrorStatus("failed to refresh token", http.StatusUnauthorized, w, err)
			return
		}
		config.ErrorStatus("failed to refresh token", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// RevokeTokenHandler signs the caller out
func (a Auth) RevokeTokenHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.Sessions.SignOut(ctx, session.TokenFromRequest(r)); err != nil {
		config.ErrorStatus("failed to sign out", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "signed out", Redirect: api.SignInPath})
}

// SessionHandler returns the caller's session
func (a Auth) SessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		config.ErrorStatus("failed to get session", http.StatusUnauthorized, w, session.ErrInvalidToken)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// PasswordResetHandler mails a reset link. The answer is the same whether
// or not the email is registered.
func (a Auth) PasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.Accounts.RequestReset(ctx, req.Email); err != nil {
		config.ErrorStatus("failed to request password reset", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, models.MessageResponse{
		Message: "If the email is registered, a reset link is on its way.",
	})
}

// PasswordResetConfirmHandler sets the new password
func (a Auth) PasswordResetConfirmHandler(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirmation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.Accounts.ConfirmReset(ctx, req.Token, req.Password); err != nil {
		if errors.Is(err, session.ErrInvalidToken) || errors.Is(err, session.ErrInvalidInput) {
			config.ErrorStatus("failed to reset password", http.StatusBadRequest, w, err)
			return
		}
		config.ErrorStatus("failed to reset password", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{
		Message:  "Password updated. Please sign in.",
		Redirect: api.SignInPath,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
