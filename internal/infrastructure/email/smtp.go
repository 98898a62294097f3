// Package email implements the core's Notifier on plain SMTP.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Config captures the SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends plain-text mail through a single SMTP relay.
type Mailer struct {
	addr string
	auth smtp.Auth
	from string
}

// NewMailer constructs a Mailer. Auth is only used when a username and
// password are configured.
func NewMailer(cfg Config) (*Mailer, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, fmt.Errorf("smtp host and port are required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp sender address is required")
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &Mailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: auth,
		from: cfg.From,
	}, nil
}

// Send delivers a plain-text message. Failures are returned to the caller.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	headers := []string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}
	raw := strings.Join(headers, "\r\n") + "\r\n\r\n" + body

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(raw)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
