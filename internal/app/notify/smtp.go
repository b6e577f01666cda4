package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// SkipVerify accepts self-signed or otherwise invalid server certificates.
	SkipVerify bool

	// Timeout for SMTP operations (default: 30 seconds)
	Timeout time.Duration
}

// SMTPTransport sends the notification through an SMTP relay. Port 465 uses
// implicit TLS; any other port upgrades with STARTTLS when the server offers it.
type SMTPTransport struct {
	cfg SMTPConfig
}

// NewSMTPTransport validates cfg and applies defaults.
func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp: host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &SMTPTransport{cfg: cfg}, nil
}

// Name implements Transport.
func (t *SMTPTransport) Name() string { return "smtp" }

// Send implements Transport.
func (t *SMTPTransport) Send(ctx context.Context, p Payload) error {
	m, err := t.message(p)
	if err != nil {
		return err
	}

	c, err := mail.NewClient(t.cfg.Host, t.options()...)
	if err != nil {
		return fmt.Errorf("smtp: create client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}

func (t *SMTPTransport) message(p Payload) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(p.From); err != nil {
		return nil, fmt.Errorf("smtp: invalid from address: %w", err)
	}
	if err := m.To(p.To); err != nil {
		return nil, fmt.Errorf("smtp: invalid to address: %w", err)
	}
	if p.ReplyTo != "" {
		if err := m.ReplyTo(p.ReplyTo); err != nil {
			return nil, fmt.Errorf("smtp: invalid reply-to address: %w", err)
		}
	}
	m.Subject(p.Subject)
	m.SetBodyString(mail.TypeTextPlain, p.TextBody)
	m.AddAlternativeString(mail.TypeTextHTML, p.HTMLBody)
	return m, nil
}

func (t *SMTPTransport) options() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(t.cfg.Port),
		mail.WithTimeout(t.cfg.Timeout),
	}

	if t.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.Username),
			mail.WithPassword(t.cfg.Password),
		)
	}

	if t.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSOpportunistic))
	}

	if t.cfg.SkipVerify {
		opts = append(opts, mail.WithTLSConfig(&tls.Config{
			ServerName:         t.cfg.Host,
			InsecureSkipVerify: true, //nolint:gosec // operator opt-in for self-signed relays
		}))
	}
	return opts
}
