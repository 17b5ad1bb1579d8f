// Package mailer delivers transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/domodwyer/mailyak/v3"

	"github.com/tradecert/tradecert-backend/pkg/config"
)

// Message is a single outbound email.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends through the configured relay with mailyak.
type SMTPSender struct {
	addr     string
	auth     smtp.Auth
	from     string
	fromName string
}

// NewSMTPSender builds a sender from config. Auth is only used when a username is set.
func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(cfg.FromAddress) == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth:     auth,
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
	}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := mailyak.New(s.addr, s.auth)
	mail.To(msg.To...)
	mail.From(s.from)
	mail.FromName(s.fromName)
	mail.Subject(msg.Subject)
	mail.Plain().Set(msg.Text)
	if msg.HTML != "" {
		mail.HTML().Set(msg.HTML)
	}

	if err := mail.Send(); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// NoopSender drops every message. It is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) Send(ctx context.Context, msg Message) error {
	return validate(msg)
}

func validate(msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("recipient required")
	}
	for _, to := range msg.To {
		if strings.TrimSpace(to) == "" {
			return fmt.Errorf("recipient required")
		}
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("subject required")
	}
	return nil
}
