// Package bootstrap wires the contact service into app.Run.
package bootstrap

import (
	"context"
	"net/http"

	"github.com/solartech/sitio/app"
	"github.com/solartech/sitio/config"
	"github.com/solartech/sitio/health"
	"github.com/solartech/sitio/internal/app/features/contact"
	"github.com/solartech/sitio/internal/app/features/siteinfo"
	"github.com/solartech/sitio/internal/app/features/static"
	"github.com/solartech/sitio/internal/app/ratelimit"
	"github.com/solartech/sitio/metrics"
	"github.com/solartech/sitio/middleware"
	"github.com/solartech/sitio/router"
	"go.uber.org/zap"
)

// Hooks is passed to app.Run by cmd/sitio.
var Hooks = app.Hooks[AppConfig, Deps]{
	Name:            "sitio",
	LoadConfig:      LoadConfig,
	ConnectBackends: ConnectBackends,
	Start:           Start,
	BuildHandler:    BuildHandler,
	Close:           Close,
}

// BuildHandler mounts the API routes, the operational endpoints and, last,
// the static front end.
func BuildHandler(core *config.CoreConfig, cfg AppConfig, deps Deps, logger *zap.Logger) (http.Handler, error) {
	r := router.New(core, router.Options{
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		AllowedOrigins:    cfg.AllowedOrigins,
		EnableMetrics:     cfg.EnableMetrics,
	}, logger)

	contact.New(deps.Pipeline, ratelimit.RemoteIPKey, logger).Mount(r)

	var reloader siteinfo.Reloader
	if cfg.EnableConfigReload {
		reloader = deps.Sites
	}
	checks := map[string]health.Check{}
	if deps.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}
	}
	siteinfo.New(deps.Sites, reloader, checks, logger).Mount(r)

	if cfg.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	if cfg.StaticDir != "" {
		static.New(cfg.StaticDir, static.Options{
			NotFound: middleware.NotFoundHandler(logger),
		}, logger).Mount(r)
	}

	return r, nil
}
