package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/solartech/sitio/config"
	"github.com/solartech/sitio/internal/app/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const siteDoc = `{
  "empresa": {"nombre": "SolarTech"},
  "contacto": {"telefonos": ["+34 900 000 000"]},
  "redesSociales": {"facebook": {"activo": true, "url": "https://facebook.com/solartech"}},
  "configuracion": {"emailPrincipal": "info@solartech.es"}
}`

func testConfig(t *testing.T) (*config.CoreConfig, AppConfig) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contact-config.json"), []byte(siteDoc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>sitio</html>"), 0o644))

	core := &config.CoreConfig{
		Env:                 "dev",
		LogLevel:            "debug",
		MaxRequestBodyBytes: 100 << 10,
		EnableCompression:   true,
		CompressionLevel:    5,
	}
	cfg := AppConfig{
		NotifyTransport:    notify.KindLog,
		NotifyTimeout:      time.Second,
		CompanyName:        notify.DefaultCompanyName,
		SMTPPort:           587,
		SiteConfigPath:     filepath.Join(dir, "contact-config.json"),
		EnableConfigReload: true,
		StaticDir:          dir,
		RateLimitWindow:    10 * time.Minute,
		RateLimitMax:       5,
		AllowedOrigins:     []string{"https://solartech.es"},
		EnableMetrics:      true,
	}
	return core, cfg
}

func newServer(t *testing.T, core *config.CoreConfig, cfg AppConfig) http.Handler {
	t.Helper()
	deps, err := ConnectBackends(context.Background(), core, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(deps) })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, Start(ctx, core, cfg, deps, zap.NewNop()))

	h, err := BuildHandler(core, cfg, deps, zap.NewNop())
	require.NoError(t, err)
	return h
}

func request(h http.Handler, method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.RemoteAddr = "198.51.100.20:40000"
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBuildHandler_Routes(t *testing.T) {
	core, cfg := testConfig(t)
	h := newServer(t, core, cfg)

	json := map[string]string{"Content-Type": "application/json"}
	rec := request(h, http.MethodPost, "/contacto",
		`{"nombre":"Ana","email":"ana@example.com","mensaje":"Quiero un presupuesto"}`, json)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "4", rec.Header().Get("RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-Content-Type-Options"))

	rec = request(h, http.MethodGet, "/api/config", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SolarTech")

	rec = request(h, http.MethodPut, "/api/config", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusOK, request(h, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, request(h, http.MethodGet, "/version", "", nil).Code)
	assert.Equal(t, http.StatusOK, request(h, http.MethodGet, "/metrics", "", nil).Code)

	rec = request(h, http.MethodGet, "/servicios", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>sitio</html>", rec.Body.String())

	rec = request(h, http.MethodGet, "/api/nada", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Recurso no encontrado")
}

func TestBuildHandler_CORS(t *testing.T) {
	core, cfg := testConfig(t)
	h := newServer(t, core, cfg)

	rec := request(h, http.MethodOptions, "/contacto", "", map[string]string{
		"Origin":                        "https://solartech.es",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, "https://solartech.es", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = request(h, http.MethodGet, "/api/config", "", map[string]string{"Origin": "https://otro.example"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBuildHandler_ReloadDisabled(t *testing.T) {
	core, cfg := testConfig(t)
	cfg.EnableConfigReload = false
	cfg.EnableMetrics = false
	h := newServer(t, core, cfg)

	assert.Equal(t, http.StatusMethodNotAllowed, request(h, http.MethodPut, "/api/config", "", nil).Code)
}

func TestConnectBackends_BadSettings(t *testing.T) {
	core, cfg := testConfig(t)

	bad := cfg
	bad.NotifyTransport = "paloma"
	_, err := ConnectBackends(context.Background(), core, bad, zap.NewNop())
	assert.Error(t, err)

	bad = cfg
	bad.RedisURL = "not-a-url"
	_, err = ConnectBackends(context.Background(), core, bad, zap.NewNop())
	assert.Error(t, err)
}

func TestConnectBackends_MissingSiteConfig(t *testing.T) {
	core, cfg := testConfig(t)
	cfg.SiteConfigPath = filepath.Join(t.TempDir(), "missing.json")

	h := newServer(t, core, cfg)
	rec := request(h, http.MethodGet, "/api/config", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error al cargar la configuración")
}

func TestAppConfig_Validate(t *testing.T) {
	_, cfg := testConfig(t)
	require.NoError(t, cfg.validate())

	for name, mutate := range map[string]func(*AppConfig){
		"max":    func(c *AppConfig) { c.RateLimitMax = 0 },
		"window": func(c *AppConfig) { c.RateLimitWindow = 0 },
		"port":   func(c *AppConfig) { c.SMTPPort = 70000 },
		"path":   func(c *AppConfig) { c.SiteConfigPath = "" },
	} {
		c := cfg
		mutate(&c)
		assert.Error(t, c.validate(), name)
	}
}

func TestAppConfig_WarnMissing(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	AppConfig{NotifyTransport: notify.KindSMTP, SMTPHost: "smtp.example.com"}.warnMissing(logger)
	require.Equal(t, 1, logs.Len())
	missing := logs.All()[0].ContextMap()["missing"]
	assert.ElementsMatch(t, []any{"SMTP_USER", "SMTP_PASS"}, missing)

	AppConfig{NotifyTransport: notify.KindLog}.warnMissing(logger)
	assert.Equal(t, 1, logs.Len())
}
