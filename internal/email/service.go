package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"mime"
	"net/smtp"
	"net/url"

	"github.com/ukrch/platform/internal/config"
	"github.com/ukrch/platform/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// sendFunc matches smtp.SendMail
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type message struct {
	Heading string
	Action  string
	Link    string
	Expiry  string
}

// Service sends the confirmation and password reset emails over SMTP
type Service struct {
	cfg       config.EmailConfig
	templates map[string]*template.Template
	send      sendFunc
}

func NewService(cfg config.EmailConfig) (*Service, error) {
	if cfg.FromAddress == "" {
		cfg.FromAddress = cfg.SMTPUser
	}

	templates := make(map[string]*template.Template, 2)
	for _, name := range []string{"confirm", "reset"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		templates[name] = t
	}

	return &Service{cfg: cfg, templates: templates, send: smtp.SendMail}, nil
}

// SendConfirmationEmail mails the email confirmation link.
// It is called from a goroutine by the identity service.
func (s *Service) SendConfirmationEmail(ctx context.Context, toEmail, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := s.render("confirm", message{
		Heading: "Підтвердження пошти / Confirm your email",
		Action:  "Підтвердити / Confirm",
		Link:    s.link("/auth/confirm", token),
		Expiry:  "Посилання дійсне 24 години. / This link expires in 24 hours.",
	})
	if err != nil {
		return err
	}

	if err := s.deliver(toEmail, "Підтвердіть адресу / Confirm your email address", body); err != nil {
		logger.Error("failed to send confirmation email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("confirmation email sent", "email", toEmail)
	return nil
}

// SendPasswordResetEmail mails the password reset link
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := s.render("reset", message{
		Heading: "Зміна пароля / Password reset",
		Action:  "Змінити пароль / Reset password",
		Link:    s.link("/auth/reset-password", token),
		Expiry:  "Посилання дійсне 1 годину. / This link expires in 1 hour.",
	})
	if err != nil {
		return err
	}

	if err := s.deliver(toEmail, "Зміна пароля / Reset your password", body); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

func (s *Service) link(path, token string) string {
	return s.cfg.FrontendURL + path + "?token=" + url.QueryEscape(token)
}

func (s *Service) render(name string, data message) (string, error) {
	var buf bytes.Buffer
	if err := s.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("execute %s template: %w", name, err)
	}
	return buf.String(), nil
}

func (s *Service) deliver(to, subject, body string) error {
	var auth smtp.Auth
	if s.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.cfg.FromAddress, to, mime.QEncoding.Encode("UTF-8", subject), body,
	))

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	return s.send(addr, auth, s.cfg.FromAddress, []string{to}, msg)
}
