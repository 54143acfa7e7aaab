// Package sms delivers one-time codes by text message.
package sms

import (
	"context"
	"errors"

	"github.com/ukrch/platform/internal/config"
	"github.com/ukrch/platform/internal/logging"
)

// ErrNotConfigured is returned when no SMS provider is available
var ErrNotConfigured = errors.New("sms: provider not configured")

// Sender delivers a text message to an E.164 phone number
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// New returns the Twilio client when credentials are present. Without them
// development builds log messages and every other build refuses to send.
func New(cfg config.SMSConfig, isDevelopment bool, logger *logging.Logger) Sender {
	switch {
	case cfg.Configured():
		return NewTwilioClient(cfg.AccountSID, cfg.AuthToken, cfg.From, cfg.BaseURL)
	case isDevelopment && cfg.DevFallback:
		logger.Warn("SMS provider not configured, codes will be logged")
		return NewLogSender(logger)
	default:
		return Unconfigured{}
	}
}

// Unconfigured always fails with ErrNotConfigured
type Unconfigured struct{}

func (Unconfigured) Send(context.Context, string, string) error {
	return ErrNotConfigured
}

// LogSender writes messages to the log. Development only.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, body string) error {
	s.logger.Info("sms (not sent)", "to", to, "body", body)
	return nil
}
