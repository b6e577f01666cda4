package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Transport kinds accepted by NewTransport.
const (
	KindSMTP      = "smtp"
	KindPostmark  = "postmark"
	KindFormspree = "formspree"
	KindLog       = "log"
)

// ErrNotConfigured is returned by every send when the selected transport is
// missing its settings in production.
var ErrNotConfigured = errors.New("notify: transport not configured")

// TransportOptions selects and configures a transport.
type TransportOptions struct {
	// Kind is one of smtp, postmark, formspree or log. Empty means smtp.
	Kind string
	// Env is the runtime environment; outside "prod" an unconfigured SMTP
	// relay degrades to the log transport.
	Env string

	SMTP              SMTPConfig
	Postmark          PostmarkConfig
	FormspreeEndpoint string
	Timeout           time.Duration
}

// NewTransport builds the transport named by opts.Kind.
func NewTransport(opts TransportOptions, logger *zap.Logger) (Transport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", KindSMTP:
		if opts.SMTP.Host == "" {
			logger.Warn("SMTP_HOST is not set; contact notifications cannot be emailed")
			if opts.Env != "prod" {
				logger.Warn("falling back to log transport", zap.String("env", opts.Env))
				return NewLogTransport(logger), nil
			}
			return unconfigured{kind: KindSMTP}, nil
		}
		if opts.SMTP.Username == "" || opts.SMTP.Password == "" {
			logger.Warn("SMTP_USER or SMTP_PASS is not set; relay must accept unauthenticated mail")
		}
		if opts.SMTP.Timeout <= 0 {
			opts.SMTP.Timeout = opts.Timeout
		}
		return NewSMTPTransport(opts.SMTP)

	case KindPostmark:
		return NewPostmarkTransport(opts.Postmark)

	case KindFormspree:
		return NewFormspreeTransport(opts.FormspreeEndpoint, opts.Timeout)

	case KindLog:
		return NewLogTransport(logger), nil

	default:
		return nil, fmt.Errorf("notify: unknown transport %q (want smtp, postmark, formspree or log)", opts.Kind)
	}
}

type unconfigured struct{ kind string }

func (u unconfigured) Name() string { return u.kind }

func (u unconfigured) Send(context.Context, Payload) error { return ErrNotConfigured }
