package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// FormspreeTransport relays the submission fields to a hosted form endpoint
// instead of sending mail itself. The endpoint owns addressing and rendering.
type FormspreeTransport struct {
	endpoint string
	client   *http.Client
}

// NewFormspreeTransport posts to endpoint with a client bounded by timeout.
func NewFormspreeTransport(endpoint string, timeout time.Duration) (*FormspreeTransport, error) {
	if endpoint == "" {
		return nil, errors.New("formspree: endpoint is required")
	}
	return &FormspreeTransport{endpoint: endpoint, client: newHTTPClient(timeout)}, nil
}

// Name implements Transport.
func (t *FormspreeTransport) Name() string { return "formspree" }

// SelfAddressed implements SelfAddressed; the form owner's inbox is set in
// Formspree.
func (t *FormspreeTransport) SelfAddressed() bool { return true }

// Send implements Transport.
func (t *FormspreeTransport) Send(ctx context.Context, p Payload) error {
	body := map[string]string{
		"nombre":   unescape(p.Fields.Nombre),
		"email":    unescape(p.Fields.Email),
		"telefono": unescape(p.Fields.Telefono),
		"mensaje":  unescape(p.Fields.Mensaje),
		"_replyto": p.ReplyTo,
		"_subject": p.Subject,
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("formspree: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("formspree: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("formspree: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("formspree: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// newHTTPClient returns a client with bounded connect, handshake and
// response-header phases in addition to the overall timeout.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConns:          10,
			ForceAttemptHTTP2:     true,
		},
	}
}
