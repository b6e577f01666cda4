// Package notify turns an accepted contact submission into a message for the
// site owner and hands it to a delivery transport.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/solartech/sitio/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultCompanyName is used when neither the site config nor the operator
// configuration names the company.
const DefaultCompanyName = "SolarTech"

// DefaultTimeout bounds one delivery attempt.
const DefaultTimeout = 30 * time.Second

// ErrNoRecipient means no destination address could be resolved.
var ErrNoRecipient = errors.New("notify: no recipient configured")

// Payload is one outgoing notification. Fields holds the sanitized
// submission for transports that relay form data instead of a rendered mail.
type Payload struct {
	To       string
	From     string
	ReplyTo  string
	Subject  string
	HTMLBody string
	TextBody string
	Company  string
	Fields   models.Submission
}

// Transport delivers a payload. Send makes exactly one attempt.
type Transport interface {
	Name() string
	Send(ctx context.Context, p Payload) error
}

// SelfAddressed is implemented by transports whose remote end picks the
// destination. The recipient chain is optional for them.
type SelfAddressed interface {
	SelfAddressed() bool
}

// Config carries the operator settings used to address the notification.
type Config struct {
	// From is the sender address; empty falls back to SMTPUser.
	From string
	// ContactEmail is the destination when the site config has no primary email.
	ContactEmail string
	// SMTPUser is the last-resort destination and default sender.
	SMTPUser string
	// CompanyName is used when the site config has no company name.
	CompanyName string
	// Timeout bounds a single Send. Zero uses DefaultTimeout.
	Timeout time.Duration
}

// Notifier builds payloads and dispatches them through one transport.
type Notifier struct {
	transport Transport
	cfg       Config
	logger    *zap.Logger
}

// New returns a Notifier. A nil logger discards output.
func New(t Transport, cfg Config, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CompanyName == "" {
		cfg.CompanyName = DefaultCompanyName
	}
	return &Notifier{transport: t, cfg: cfg, logger: logger}
}

// TransportName reports which transport is in use.
func (n *Notifier) TransportName() string { return n.transport.Name() }

func (n *Notifier) selfAddressed() bool {
	sa, ok := n.transport.(SelfAddressed)
	return ok && sa.SelfAddressed()
}

// Recipient resolves the destination: the site's primary email, then the
// operator contact address, then the SMTP user.
func (n *Notifier) Recipient(site *models.SiteConfig) (string, error) {
	if to := site.PrimaryEmail(); to != "" {
		return to, nil
	}
	if n.cfg.ContactEmail != "" {
		return n.cfg.ContactEmail, nil
	}
	if n.cfg.SMTPUser != "" {
		return n.cfg.SMTPUser, nil
	}
	return "", ErrNoRecipient
}

// Build renders the payload for a sanitized submission. site may be nil when
// the site config could not be loaded; operator defaults are used then.
func (n *Notifier) Build(sub models.Submission, site *models.SiteConfig) (Payload, error) {
	to, err := n.Recipient(site)
	if err != nil && !n.selfAddressed() {
		return Payload{}, err
	}

	company := site.CompanyName()
	if company == "" {
		company = n.cfg.CompanyName
	}

	from := n.cfg.From
	if from == "" {
		from = n.cfg.SMTPUser
	}
	if from == "" {
		from = to
	}

	html, text, err := render(sub, company)
	if err != nil {
		return Payload{}, err
	}

	return Payload{
		To:       to,
		From:     from,
		ReplyTo:  unescape(sub.Email),
		Subject:  Subject(company),
		HTMLBody: html,
		TextBody: text,
		Company:  company,
		Fields:   sub,
	}, nil
}

// Notify builds the payload and makes a single delivery attempt.
func (n *Notifier) Notify(ctx context.Context, sub models.Submission, site *models.SiteConfig) (Payload, error) {
	p, err := n.Build(sub, site)
	if err != nil {
		return Payload{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	if err := n.transport.Send(ctx, p); err != nil {
		return p, fmt.Errorf("notify via %s: %w", n.transport.Name(), err)
	}
	n.logger.Debug("notification sent",
		zap.String("transport", n.transport.Name()),
		zap.String("to", p.To),
	)
	return p, nil
}

// Subject is the notification subject line for company.
func Subject(company string) string {
	return "📧 Nuevo contacto desde el sitio web - " + company
}
