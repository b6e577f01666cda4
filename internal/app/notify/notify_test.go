package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mrz1836/postmark"
	"github.com/solartech/sitio/internal/app/policy"
	"github.com/solartech/sitio/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingTransport struct {
	sent []Payload
	err  error
}

func (r *recordingTransport) Name() string { return "recording" }

func (r *recordingTransport) Send(ctx context.Context, p Payload) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("send called without deadline")
	}
	r.sent = append(r.sent, p)
	return r.err
}

func siteWithEmail(email string) *models.SiteConfig {
	return &models.SiteConfig{
		Empresa:       &models.Empresa{Nombre: "SolarTech Canarias"},
		Contacto:      &models.Contacto{Telefonos: []string{"+34 900 000 000"}},
		RedesSociales: map[string]models.SocialNetwork{"facebook": {Activo: true, URL: "https://facebook.com/x"}},
		Configuracion: &models.Configuracion{EmailPrincipal: email},
	}
}

func anaSanitized() models.Submission {
	return policy.SanitizeSubmission(models.Submission{
		Nombre:  "Ana",
		Email:   "ana@example.com",
		Mensaje: "Quiero información sobre paneles solares",
	})
}

func TestRecipientFallbackChain(t *testing.T) {
	n := New(&recordingTransport{}, Config{ContactEmail: "contact@x.com", SMTPUser: "smtp@x.com"}, nil)

	to, err := n.Recipient(siteWithEmail("info@solartech.es"))
	require.NoError(t, err)
	assert.Equal(t, "info@solartech.es", to)

	to, err = n.Recipient(siteWithEmail(""))
	require.NoError(t, err)
	assert.Equal(t, "contact@x.com", to)

	to, err = n.Recipient(nil)
	require.NoError(t, err)
	assert.Equal(t, "contact@x.com", to)

	n = New(&recordingTransport{}, Config{SMTPUser: "smtp@x.com"}, nil)
	to, err = n.Recipient(nil)
	require.NoError(t, err)
	assert.Equal(t, "smtp@x.com", to)

	n = New(&recordingTransport{}, Config{}, nil)
	_, err = n.Recipient(nil)
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestNotify_AnaPayload(t *testing.T) {
	rt := &recordingTransport{}
	n := New(rt, Config{SMTPUser: "web@solartech.es"}, nil)

	p, err := n.Notify(context.Background(), anaSanitized(), siteWithEmail("info@solartech.es"))
	require.NoError(t, err)
	require.Len(t, rt.sent, 1)
	assert.Equal(t, p, rt.sent[0])

	assert.Equal(t, "info@solartech.es", p.To)
	assert.Equal(t, "web@solartech.es", p.From)
	assert.Equal(t, "ana@example.com", p.ReplyTo)
	assert.Equal(t, "📧 Nuevo contacto desde el sitio web - SolarTech Canarias", p.Subject)
	assert.Contains(t, p.HTMLBody, "<strong>Nombre:</strong> Ana")
	assert.Contains(t, p.HTMLBody, `<a href="mailto:ana@example.com">ana@example.com</a>`)
	assert.Contains(t, p.HTMLBody, "Quiero información sobre paneles solares")
	assert.NotContains(t, p.HTMLBody, "Teléfono")
	assert.Contains(t, p.HTMLBody, "sitio web de SolarTech Canarias.")
	assert.Contains(t, p.TextBody, "Nombre: Ana")
}

func TestBuild_DefaultsWithoutSiteConfig(t *testing.T) {
	n := New(&recordingTransport{}, Config{ContactEmail: "c@x.com"}, nil)
	p, err := n.Build(anaSanitized(), nil)
	require.NoError(t, err)
	assert.Equal(t, "📧 Nuevo contacto desde el sitio web - SolarTech", p.Subject)
	assert.Equal(t, "c@x.com", p.From, "sender falls back to the recipient")

	n = New(&recordingTransport{}, Config{ContactEmail: "c@x.com", CompanyName: "Acme"}, nil)
	p, err = n.Build(anaSanitized(), nil)
	require.NoError(t, err)
	assert.Equal(t, "📧 Nuevo contacto desde el sitio web - Acme", p.Subject)
}

func TestBuild_EscapedContentAndBreaks(t *testing.T) {
	n := New(&recordingTransport{}, Config{ContactEmail: "c@x.com"}, nil)
	sub := policy.SanitizeSubmission(models.Submission{
		Nombre:   "<b>Eve</b>",
		Email:    "eve@example.com",
		Telefono: "+34 600 000 000",
		Mensaje:  "línea uno\nlínea <dos> & 'tres'",
	})

	p, err := n.Build(sub, nil)
	require.NoError(t, err)
	assert.Contains(t, p.HTMLBody, "&lt;b&gt;Eve&lt;/b&gt;")
	assert.NotContains(t, p.HTMLBody, "<b>Eve")
	assert.NotContains(t, p.HTMLBody, "&amp;lt;", "values are escaped once")
	assert.Contains(t, p.HTMLBody, "línea uno<br>línea &lt;dos&gt; &amp; &#039;tres&#039;")
	assert.Contains(t, p.HTMLBody, "<strong>Teléfono:</strong> +34 600 000 000")

	assert.Contains(t, p.TextBody, "Nombre: <b>Eve</b>")
	assert.Contains(t, p.TextBody, "línea <dos> & 'tres'")
}

func TestNotify_TransportErrorWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	n := New(&recordingTransport{err: boom}, Config{ContactEmail: "c@x.com"}, nil)

	_, err := n.Notify(context.Background(), anaSanitized(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "recording")
}

func TestNotify_NoRecipientSkipsTransport(t *testing.T) {
	rt := &recordingTransport{}
	_, err := New(rt, Config{}, nil).Notify(context.Background(), anaSanitized(), nil)
	assert.ErrorIs(t, err, ErrNoRecipient)
	assert.Empty(t, rt.sent)
}

type fakePostmark struct {
	got  postmark.Email
	resp postmark.EmailResponse
	err  error
}

func (f *fakePostmark) SendEmail(_ context.Context, e postmark.Email) (postmark.EmailResponse, error) {
	f.got = e
	return f.resp, f.err
}

func TestPostmarkTransport(t *testing.T) {
	_, err := NewPostmarkTransport(PostmarkConfig{})
	require.Error(t, err)

	fake := &fakePostmark{}
	tr := &PostmarkTransport{client: fake, tag: "contacto"}
	p := Payload{To: "to@x.com", From: "from@x.com", ReplyTo: "ana@example.com", Subject: "s", HTMLBody: "<p>h</p>", TextBody: "t"}

	require.NoError(t, tr.Send(context.Background(), p))
	assert.Equal(t, "to@x.com", fake.got.To)
	assert.Equal(t, "ana@example.com", fake.got.ReplyTo)
	assert.Equal(t, "contacto", fake.got.Tag)
	assert.Equal(t, "t", fake.got.TextBody)

	fake.resp = postmark.EmailResponse{ErrorCode: 406, Message: "inactive recipient"}
	err = tr.Send(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "406")
}

func TestFormspreeTransport(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got["nombre"] == "fail" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"bad"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tr, err := NewFormspreeTransport(srv.URL, 5*time.Second)
	require.NoError(t, err)

	p := Payload{ReplyTo: "ana@example.com", Subject: "s", Fields: policy.SanitizeSubmission(models.Submission{
		Nombre: "Ana & Co", Email: "ana@example.com", Mensaje: "Hola desde el formulario",
	})}
	require.NoError(t, tr.Send(context.Background(), p))
	assert.Equal(t, "Ana & Co", got["nombre"])
	assert.Equal(t, "ana@example.com", got["_replyto"])

	p.Fields.Nombre = "fail"
	err = tr.Send(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestNotify_FormspreeNeedsNoRecipient(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tr, err := NewFormspreeTransport(srv.URL, 5*time.Second)
	require.NoError(t, err)

	p, err := New(tr, Config{}, nil).Notify(context.Background(), anaSanitized(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
	assert.Empty(t, p.To)
	assert.Equal(t, "ana@example.com", p.ReplyTo)

	p, err = New(tr, Config{ContactEmail: "c@x.com"}, nil).Notify(context.Background(), anaSanitized(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
	assert.Equal(t, "c@x.com", p.To)
}

func TestLogTransport(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tr := NewLogTransport(zap.New(core))

	require.NoError(t, tr.Send(context.Background(), Payload{To: "to@x.com", Subject: "hola"}))
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "to@x.com", entries[0].ContextMap()["to"])
}

func TestNewTransport(t *testing.T) {
	tr, err := NewTransport(TransportOptions{Env: "dev"}, nil)
	require.NoError(t, err)
	assert.Equal(t, KindLog, tr.Name(), "missing SMTP host outside prod logs instead")

	tr, err = NewTransport(TransportOptions{Env: "prod"}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, tr.Send(context.Background(), Payload{}), ErrNotConfigured)

	tr, err = NewTransport(TransportOptions{Kind: "SMTP", SMTP: SMTPConfig{Host: "smtp.example.com", Port: 465}}, nil)
	require.NoError(t, err)
	assert.Equal(t, KindSMTP, tr.Name())

	tr, err = NewTransport(TransportOptions{Kind: "postmark", Postmark: PostmarkConfig{ServerToken: "tok"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, KindPostmark, tr.Name())

	_, err = NewTransport(TransportOptions{Kind: "formspree"}, nil)
	require.Error(t, err)

	_, err = NewTransport(TransportOptions{Kind: "pigeon"}, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "pigeon"))
}

func TestSMTPTransport_Message(t *testing.T) {
	_, err := NewSMTPTransport(SMTPConfig{})
	require.Error(t, err)

	tr, err := NewSMTPTransport(SMTPConfig{Host: "smtp.example.com"})
	require.NoError(t, err)
	assert.Equal(t, 587, tr.cfg.Port)

	_, err = tr.message(Payload{From: "not an address", To: "to@x.com"})
	require.Error(t, err)

	m, err := tr.message(Payload{From: "from@x.com", To: "to@x.com", ReplyTo: "ana@example.com", Subject: "s", TextBody: "t", HTMLBody: "<p>h</p>"})
	require.NoError(t, err)
	rcpts, err := m.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"<to@x.com>"}, rcpts)
}
