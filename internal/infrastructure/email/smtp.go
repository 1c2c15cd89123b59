// Package email sends transactional mail over SMTP. It is the narrow
// implementation of the external mail collaborator; delivery happens out of
// band and is never retried here.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Config holds SMTP settings plus the public URL clients use to reach the
// reset form.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	// ResetURLBase is the frontend origin, e.g. https://citywatch.example.
	ResetURLBase string
}

// Service implements ports.Mailer over net/smtp.
type Service struct {
	cfg    Config
	server string
	auth   smtp.Auth
}

func NewService(cfg Config) *Service {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &Service{
		cfg:    cfg,
		server: cfg.Host + ":" + cfg.Port,
		auth:   auth,
	}
}

// IsConfigured reports whether enough settings are present to send mail.
func (s *Service) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Port != "" && s.cfg.From != ""
}

// SendPasswordReset delivers the single-use reset token to the account email.
func (s *Service) SendPasswordReset(_ context.Context, to, token string) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}

	from := s.cfg.From
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.From)
	}

	var body strings.Builder
	body.WriteString("You are receiving this because you (or someone else) requested a password reset for your account.\r\n\r\n")
	body.WriteString("Use the token below to reset your password:\r\n\r\n")
	fmt.Fprintf(&body, "Token: %s\r\n\r\n", token)
	if s.cfg.ResetURLBase != "" {
		fmt.Fprintf(&body, "Reset page: %s/reset/%s\r\n\r\n", strings.TrimRight(s.cfg.ResetURLBase, "/"), token)
	}
	body.WriteString("The token expires in one hour. If you did not request this, ignore this email.\r\n")

	msg := []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: CityWatch Password Reset\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		to,
		from,
		body.String(),
	))

	return smtp.SendMail(s.server, s.auth, s.cfg.From, []string{to}, msg)
}
