// Package notify delivers monitor notifications over an authenticated SMTP
// relay. The SMTP password is supplied via the process environment, never via
// the configuration file.
package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/seenimoa/insiderwatch/internal/config"
)

// Mailer sends plain-text mail through the configured relay.
type Mailer struct {
	cfg config.NotifyConfig
}

// NewMailer creates a mailer from notification config.
func NewMailer(cfg config.NotifyConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Notify sends one message. At most one attempt; retry policy is the
// caller's concern (the monitor treats delivery as best-effort).
func (m *Mailer) Notify(ctx context.Context, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", m.cfg.From, err)
	}
	if err := msg.To(m.cfg.To); err != nil {
		return fmt.Errorf("invalid to address %q: %w", m.cfg.To, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.cfg.SMTPHost,
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail via %s: %w", m.cfg.SMTPHost, err)
	}
	return nil
}
