package accounts

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer delivers a single html email with a plain text alternative
type Mailer interface {
	Send(ctx context.Context, to, subject, plain, html string) error
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer sends through the SendGrid v3 API
type SendGridMailer struct {
	client sendClient
	from   *mail.Email
}

// NewSendGridMailer returns a mailer sending as from
func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("Investigações Policiais", from),
	}
}

func (m *SendGridMailer) Send(ctx context.Context, to, subject, plain, html string) error {
	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), plain, html)
	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", to)
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	zap.S().Infow("email sent successfully", "to", to, "subject", subject)
	return nil
}

// LogMailer only logs; used when no SendGrid key is configured
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, _, _ string) error {
	zap.S().Warnw("SENDGRID_API_KEY not set, email not sent", "to", to, "subject", subject)
	return nil
}
