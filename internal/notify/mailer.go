package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the mail-server settings, read once at process start and
// passed in — never from ambient globals.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // sender address on outgoing mail
}

// Mailer is the SMTP-backed Notifier.
type Mailer struct {
	client *mail.Client
	from   string
}

// compile-time check that *Mailer implements Notifier
var _ Notifier = (*Mailer)(nil)

// NewMailer creates an SMTP mailer. The connection is dialed per send, not
// held open — notification volume here is a handful of mails per mutation.
func NewMailer(cfg SMTPConfig) (*Mailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("notify: SMTP host and from address are required")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("notify: creating SMTP client: %w", err)
	}

	return &Mailer{client: client, from: cfg.From}, nil
}

// Send delivers a single plain-text message.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("notify: setting sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("notify: setting recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("notify: sending mail to %s: %w", to, err)
	}
	return nil
}
