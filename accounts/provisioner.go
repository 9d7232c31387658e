// Package accounts creates officer accounts, resets passwords and removes
// credentials that never got a profile.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/police-investigations-api/databases"
	"github.com/linesmerrill/police-investigations-api/models"
	"github.com/linesmerrill/police-investigations-api/session"
	templates "github.com/linesmerrill/police-investigations-api/templates/html"
)

// CredentialProvider is the part of the credential store used here
type CredentialProvider interface {
	SignUp(ctx context.Context, email, password string) (*session.User, error)
	DeleteUser(ctx context.Context, userID string) error
	LookupUser(ctx context.Context, email string) (*session.User, error)
	IssueResetToken(userID string) (string, error)
	ResetPassword(ctx context.Context, resetToken, password string) (*session.User, error)
}

// Provisioner creates the credential and the officer profile as one unit
type Provisioner struct {
	provider CredentialProvider
	officers databases.OfficerDatabase
	mailer   Mailer
	baseURL  string
	now      func() time.Time
}

// NewProvisioner wires the provisioner. baseURL is the front-end origin used
// in emailed links.
func NewProvisioner(provider CredentialProvider, officers databases.OfficerDatabase, mailer Mailer, baseURL string) *Provisioner {
	return &Provisioner{
		provider: provider,
		officers: officers,
		mailer:   mailer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
}

// SignUp registers the credential and then the officer profile keyed by the
// new user id. If the profile cannot be stored the credential is deleted
// again; should that fail too both errors are returned and the sweeper
// collects the orphan later.
func (p *Provisioner) SignUp(ctx context.Context, data models.SignUpData) (*models.Officer, error) {
	user, err := p.provider.SignUp(ctx, data.Email, data.Password)
	if err != nil {
		return nil, err
	}

	now := p.now()
	officer := models.Officer{
		ID:        user.ID,
		RG:        data.RG,
		Rank:      data.Rank,
		QRA:       data.QRA,
		Email:     user.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.officers.InsertOne(ctx, officer); err != nil {
		profileErr := fmt.Errorf("create officer profile: %w", err)
		if derr := p.provider.DeleteUser(ctx, user.ID); derr != nil && !errors.Is(derr, databases.ErrNotFound) {
			zap.S().Errorw("failed to roll back credential, left for sweeper", "userId", user.ID, "error", derr)
			return nil, errors.Join(profileErr, fmt.Errorf("roll back credential: %w", derr))
		}
		zap.S().Warnw("officer profile failed, credential rolled back", "userId", user.ID, "error", err)
		return nil, profileErr
	}

	subject, plain, html := templates.RenderAccountCreated(user.Email)
	if err := p.mailer.Send(ctx, user.Email, subject, plain, html); err != nil {
		zap.S().Warnw("failed to send account created email", "userId", user.ID, "error", err)
	}
	return &officer, nil
}

// RequestReset mails a password reset link. Unknown emails are ignored so
// the endpoint does not reveal which addresses are registered.
func (p *Provisioner) RequestReset(ctx context.Context, email string) error {
	user, err := p.provider.LookupUser(ctx, email)
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			zap.S().Debugw("password reset for unknown email")
			return nil
		}
		return err
	}
	token, err := p.provider.IssueResetToken(user.ID)
	if err != nil {
		return err
	}
	link := p.baseURL + "/reset-password?token=" + url.QueryEscape(token)
	subject, plain, html := templates.RenderPasswordReset(link)
	return p.mailer.Send(ctx, user.Email, subject, plain, html)
}

// ConfirmReset sets the new password; the credential store revokes the
// user's open sessions
func (p *Provisioner) ConfirmReset(ctx context.Context, token, password string) error {
	user, err := p.provider.ResetPassword(ctx, token, password)
	if err != nil {
		return err
	}
	zap.S().Infow("password reset", "userId", user.ID)
	return nil
}
