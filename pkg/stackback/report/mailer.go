package report

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// MailSettings configures the SMTP submission channel.
type MailSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Configured reports whether a mail relay has been set up at all.
func (s MailSettings) Configured() bool {
	return s.Host != ""
}

// Mailer sends the run report as a single plain-text message over an
// authenticated, STARTTLS-upgraded SMTP connection.
type Mailer struct {
	settings MailSettings
}

// NewMailer creates a mailer with the given settings.
func NewMailer(settings MailSettings) *Mailer {
	return &Mailer{settings: settings}
}

// Send delivers the report. The caller decides how a delivery failure is
// surfaced; it never alters the backup outcome that the report already
// states.
func (m *Mailer) Send(ctx context.Context, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.settings.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(m.settings.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.settings.Host,
		mail.WithPort(m.settings.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.settings.Username),
		mail.WithPassword(m.settings.Password),
	)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending report: %w", err)
	}
	return nil
}
