package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKeys = []AppKey{
	{Name: "smtp_host", Default: "", Desc: "SMTP host"},
	{Name: "smtp_port", Default: 587, Desc: "SMTP port"},
	{Name: "smtp_pass", Default: "", Desc: "SMTP password", Secret: true},
	{Name: "allowed_origins", Default: []string{}, Desc: "CORS origins"},
	{Name: "rate_limit_window", Default: 10 * time.Minute, Desc: "window"},
	{Name: "enable_metrics", Default: true, Desc: "metrics"},
}

func TestLoad_Defaults(t *testing.T) {
	cfg, app, err := load(nil, nil, testKeys)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 3000, cfg.HTTP.HTTPPort)
	assert.Equal(t, int64(100<<10), cfg.MaxRequestBodyBytes)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, 10*time.Second, cfg.BackendConnectTimeout)

	assert.Equal(t, "", app.String("smtp_host"))
	assert.Equal(t, 587, app.Int("smtp_port"))
	assert.Empty(t, app.StringSlice("allowed_origins"))
	assert.Equal(t, 10*time.Minute, app.Duration("rate_limit_window", time.Minute))
	assert.True(t, app.Bool("enable_metrics"))
}

func TestLoad_EnvUnprefixedAppKeys(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_WINDOW", "90s")
	t.Setenv("ENABLE_METRICS", "false")
	t.Setenv("SITIO_ENV", "prod")
	t.Setenv("PORT", "8081")

	cfg, app, err := load(nil, nil, testKeys)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, 8081, cfg.HTTP.HTTPPort)
	assert.Equal(t, "smtp.example.com", app.String("smtp_host"))
	assert.Equal(t, 465, app.Int("smtp_port"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, app.StringSlice("allowed_origins"))
	assert.Equal(t, 90*time.Second, app.Duration("rate_limit_window", time.Minute))
	assert.False(t, app.Bool("enable_metrics"))
}

func TestLoad_FlagsWin(t *testing.T) {
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("SITIO_HTTP_PORT", "9000")

	cfg, app, err := load(nil, []string{"--smtp_port=2525", "--http_port=9100", `--allowed_origins=["https://c.example"]`}, testKeys)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.HTTP.HTTPPort)
	assert.Equal(t, 2525, app.Int("smtp_port"))
	assert.Equal(t, []string{"https://c.example"}, app.StringSlice("allowed_origins"))
}

func TestLoad_Invalid(t *testing.T) {
	_, _, err := load(nil, []string{"--use_lets_encrypt"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use_https")

	_, _, err = load(nil, []string{"--env=staging"}, nil)
	require.Error(t, err)

	_, _, err = load(nil, []string{"--use_https"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CERT_FILE")

	_, _, err = load(nil, []string{"--compression_level=12"}, nil)
	require.Error(t, err)

	_, _, err = load(nil, []string{"--log_level=verbose"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

func TestLoad_DuplicateKey(t *testing.T) {
	_, _, err := load(nil, nil, []AppKey{{Name: "http_port", Default: 1}})
	require.Error(t, err)
}

func TestParseDurationFlexible(t *testing.T) {
	tests := []struct {
		in      any
		want    time.Duration
		wantErr bool
	}{
		{"90s", 90 * time.Second, false},
		{"120", 120 * time.Second, false},
		{600, 10 * time.Minute, false},
		{int64(5), 5 * time.Second, false},
		{"", time.Minute, false},
		{nil, time.Minute, false},
		{"soon", time.Minute, true},
		{"-5s", time.Minute, true},
	}
	for _, tt := range tests {
		got, err := parseDurationFlexible(tt.in, time.Minute)
		assert.Equal(t, tt.want, got, "%v", tt.in)
		assert.Equal(t, tt.wantErr, err != nil, "%v", tt.in)
	}
}

func TestParseList(t *testing.T) {
	assert.Nil(t, parseList(""))
	assert.Equal(t, []string{"a", "b"}, parseList(" a , ,b "))
	assert.Equal(t, []string{"x", "y"}, parseList(`["x","y"]`))
	assert.Equal(t, []string{"1", "z"}, parseList([]any{1, "z"}))
}
