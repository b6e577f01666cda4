package siteinfo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/solartech/sitio/health"
	"github.com/solartech/sitio/internal/app/siteconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `{
  "empresa": {"nombre": "SolarTech", "slogan": "Energía limpia"},
  "contacto": {"telefonos": ["+34 900 000 000"]},
  "redesSociales": {"facebook": {"activo": true, "url": "https://facebook.com/solartech"}},
  "configuracion": {"emailPrincipal": "info@solartech.es"},
  "tema": {"color": "#ffaa00"}
}`

type envelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func serve(t *testing.T, h http.Handler, method, path string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func newRouter(t *testing.T, path string, checks map[string]health.Check) chi.Router {
	t.Helper()
	p := siteconfig.NewFileProvider(path, nil)
	r := chi.NewRouter()
	New(p, p, checks, nil).Mount(r)
	return r
}

func TestGetConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contact-config.json")
	writeFile(t, path, validDoc)

	code, env := serve(t, newRouter(t, path, nil), http.MethodGet, "/api/config")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, "SolarTech", env.Data["empresa"].(map[string]any)["nombre"])
	assert.Contains(t, env.Data, "tema")
}

func TestGetConfig_Unavailable(t *testing.T) {
	r := chi.NewRouter()
	New(siteconfig.Unavailable(errors.New("disk gone")), nil, nil, nil).Mount(r)

	code, env := serve(t, r, http.MethodGet, "/api/config")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, env.Success)
	assert.Equal(t, msgLoadFailed, env.Message)
}

func TestReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contact-config.json")
	writeFile(t, path, validDoc)
	r := newRouter(t, path, nil)

	code, _ := serve(t, r, http.MethodGet, "/api/config")
	require.Equal(t, http.StatusOK, code)

	writeFile(t, path, `{"empresa":{"nombre":"SolarTech Norte"},"contacto":{"telefonos":["+34 900 000 000"]},"redesSociales":{"x":{"activo":false}}}`)
	code, env := serve(t, r, http.MethodPut, "/api/config")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, msgReloaded, env.Message)
	assert.Equal(t, "SolarTech Norte", env.Data["empresa"].(map[string]any)["nombre"])

	tests := []struct {
		name    string
		body    string
		remove  bool
		status  int
		message string
	}{
		{"syntax", `{"empresa":`, false, http.StatusBadRequest, msgBadSyntax},
		{"structure", `{"empresa":{"nombre":"x"}}`, false, http.StatusBadRequest, msgBadStructure},
		{"missing", "", true, http.StatusNotFound, msgFileMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.remove {
				require.NoError(t, os.Remove(path))
			} else {
				writeFile(t, path, tt.body)
			}
			code, env := serve(t, r, http.MethodPut, "/api/config")
			assert.Equal(t, tt.status, code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Message)

			code, env = serve(t, r, http.MethodGet, "/api/config")
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, "SolarTech Norte", env.Data["empresa"].(map[string]any)["nombre"])
		})
	}
}

func TestReloadConfig_Disabled(t *testing.T) {
	r := chi.NewRouter()
	New(siteconfig.Unavailable(siteconfig.ErrNotFound), nil, nil, nil).Mount(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/config", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReloadError_Other(t *testing.T) {
	status, msg := reloadError(errors.New("permission denied"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, msgReloadFailed, msg)
}

func TestHealth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contact-config.json")
	writeFile(t, path, validDoc)

	r := newRouter(t, path, map[string]health.Check{
		"redis": func(context.Context) error { return nil },
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp health.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, map[string]string{"site_config": "ok", "redis": "ok"}, resp.Checks)

	require.NoError(t, os.Remove(path))
	missing := newRouter(t, path, nil)
	rec = httptest.NewRecorder()
	missing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestVersion(t *testing.T) {
	r := newRouter(t, filepath.Join(t.TempDir(), "none.json"), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"go_version"`)
}
