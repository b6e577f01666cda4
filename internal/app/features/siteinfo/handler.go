// Package siteinfo serves the public site configuration and the operational
// endpoints (/health, /version).
package siteinfo

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/solartech/sitio/health"
	"github.com/solartech/sitio/httputil"
	"github.com/solartech/sitio/internal/app/siteconfig"
	"github.com/solartech/sitio/version"
	"go.uber.org/zap"
)

const (
	msgLoadFailed   = "Error al cargar la configuración"
	msgReloaded     = "Configuración recargada correctamente desde el archivo"
	msgFileMissing  = "Archivo de configuración no encontrado"
	msgBadStructure = "El archivo de configuración no tiene la estructura requerida (empresa, contacto, redesSociales)"
	msgBadSyntax    = "Error de sintaxis en el archivo JSON de configuración"
	msgReloadFailed = "Error al recargar la configuración"
)

// Reloader re-reads the configuration source. *siteconfig.FileProvider
// implements it.
type Reloader interface {
	Reload() (*siteconfig.Snapshot, error)
}

type Handler struct {
	sites    siteconfig.Provider
	reloader Reloader
	checks   map[string]health.Check
	logger   *zap.Logger
}

// New builds the handler. A nil reloader leaves PUT /api/config unmounted.
// checks are added to /health next to the site config check.
func New(sites siteconfig.Provider, reloader Reloader, checks map[string]health.Check, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	all := map[string]health.Check{
		"site_config": func(context.Context) error {
			_, err := sites.Current()
			return err
		},
	}
	for name, c := range checks {
		all[name] = c
	}
	return &Handler{sites: sites, reloader: reloader, checks: all, logger: logger}
}

func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/config", h.get)
	if h.reloader != nil {
		r.Put("/api/config", h.reload)
	}
	health.Mount(r, h.checks, h.logger)
	version.Mount(r)
}

func (h *Handler) get(w http.ResponseWriter, _ *http.Request) {
	snap, err := h.sites.Snapshot()
	if err != nil {
		h.logger.Error("site config unavailable", zap.Error(err))
		httputil.JSONError(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{Success: true, Data: snap.Document})
}

func (h *Handler) reload(w http.ResponseWriter, _ *http.Request) {
	snap, err := h.reloader.Reload()
	if err != nil {
		status, msg := reloadError(err)
		h.logger.Warn("site config reload failed", zap.Int("status", status), zap.Error(err))
		httputil.JSONError(w, status, msg)
		return
	}
	h.logger.Info("site config reloaded on request", zap.String("source", snap.Source))
	httputil.OK(w, msgReloaded, snap.Document)
}

func reloadError(err error) (int, string) {
	switch {
	case errors.Is(err, siteconfig.ErrNotFound):
		return http.StatusNotFound, msgFileMissing
	case errors.Is(err, siteconfig.ErrInvalid):
		return http.StatusBadRequest, msgBadStructure
	case errors.Is(err, siteconfig.ErrSyntax):
		return http.StatusBadRequest, msgBadSyntax
	default:
		return http.StatusInternalServerError, msgReloadFailed
	}
}
