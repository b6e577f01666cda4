package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/solartech/sitio/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"solartech.es", true},
		{"solartech.es:8443", true},
		{"[::1]:8080", true},
		{"[fe80::1%25eth0]:80", true},
		{"", false},
		{"solartech.es:0", false},
		{"solartech.es:99999", false},
		{"[nope]:80", false},
		{"evil.com\r\nSet-Cookie: x", false},
		{"http://evil.com", false},
		{"/path", false},
		{":80", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isValidHost(tt.host), "host %q", tt.host)
	}
}

func TestRedirectToHTTPS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://solartech.es/contacto?x=1", nil)
	rec := httptest.NewRecorder()
	RedirectToHTTPS().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "https://solartech.es/contacto?x=1", rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "bad host"
	rec = httptest.NewRecorder()
	RedirectToHTTPS().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateTLSFiles(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")

	err := validateTLSFiles(cert, key)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	require.NoError(t, os.WriteFile(cert, []byte("c"), 0o644))
	require.NoError(t, os.WriteFile(key, []byte("k"), 0o600))
	assert.NoError(t, validateTLSFiles(cert, key))

	assert.Error(t, validateTLSFiles(dir, key))

	if runtime.GOOS != "windows" {
		require.NoError(t, os.Chmod(key, 0o644))
		var perm *permissionError
		assert.True(t, errors.As(validateTLSFiles(cert, key), &perm))
	}
}

func TestListenAndServeWithContext_Validation(t *testing.T) {
	assert.Error(t, ListenAndServeWithContext(context.Background(), nil, http.NotFoundHandler(), nil))
	assert.Error(t, ListenAndServeWithContext(context.Background(), &config.CoreConfig{}, nil, nil))
}

func TestListenAndServeWithContext_ShutsDownOnCancel(t *testing.T) {
	cfg := &config.CoreConfig{}
	cfg.HTTP.HTTPPort = 0
	cfg.HTTP.ShutdownTimeout = 2 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ListenAndServeWithContext(ctx, cfg, http.NotFoundHandler(), nil) }()

	cancel()
	assert.NoError(t, <-done)
}
