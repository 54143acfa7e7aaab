package email

import (
	"context"

	"github.com/ukrch/platform/internal/logging"
)

// LogMailer writes links to the log instead of sending them. Used in
// development when no SMTP host is configured.
type LogMailer struct {
	logger      *logging.Logger
	frontendURL string
}

func NewLogMailer(logger *logging.Logger, frontendURL string) *LogMailer {
	return &LogMailer{logger: logger, frontendURL: frontendURL}
}

func (m *LogMailer) SendConfirmationEmail(_ context.Context, toEmail, token string) error {
	m.logger.Info("confirmation email (not sent)", "email", toEmail, "link", m.frontendURL+"/auth/confirm?token="+token)
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(_ context.Context, toEmail, token string) error {
	m.logger.Info("password reset email (not sent)", "email", toEmail, "link", m.frontendURL+"/auth/reset-password?token="+token)
	return nil
}
