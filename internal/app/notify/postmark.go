package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// PostmarkConfig holds Postmark API credentials.
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	// Tag groups these messages in the Postmark dashboard.
	Tag string
}

// postmarkSender is the part of *postmark.Client the transport needs.
type postmarkSender interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkTransport sends through Postmark's transactional API.
type PostmarkTransport struct {
	client postmarkSender
	tag    string
}

// NewPostmarkTransport requires a server token; the account token is optional
// since only message sending is used.
func NewPostmarkTransport(cfg PostmarkConfig) (*PostmarkTransport, error) {
	if cfg.ServerToken == "" {
		return nil, errors.New("postmark: server token is required")
	}
	tag := cfg.Tag
	if tag == "" {
		tag = "contacto"
	}
	return &PostmarkTransport{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		tag:    tag,
	}, nil
}

// Name implements Transport.
func (t *PostmarkTransport) Name() string { return "postmark" }

// Send implements Transport.
func (t *PostmarkTransport) Send(ctx context.Context, p Payload) error {
	resp, err := t.client.SendEmail(ctx, postmark.Email{
		From:     p.From,
		To:       p.To,
		ReplyTo:  p.ReplyTo,
		Subject:  p.Subject,
		Tag:      t.tag,
		HTMLBody: p.HTMLBody,
		TextBody: p.TextBody,
	})
	if err != nil {
		return fmt.Errorf("postmark: send: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark: error %d: %s", resp.ErrorCode, resp.Message)
	}
	return nil
}
