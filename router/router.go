// Package router builds the chi router with the server-wide middleware stack.
package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/solartech/sitio/config"
	"github.com/solartech/sitio/logging"
	"github.com/solartech/sitio/metrics"
	"github.com/solartech/sitio/middleware"
	"go.uber.org/zap"
)

// Options are the app-level switches that shape the stack.
type Options struct {
	// TrustProxyHeaders enables chi's RealIP so X-Forwarded-For / X-Real-IP
	// become the client address. Only safe behind a proxy that sets them.
	TrustProxyHeaders bool
	// AllowedOrigins for CORS; empty allows all.
	AllowedOrigins []string
	// EnableMetrics records HTTP request durations.
	EnableMetrics bool
}

// New returns a router with, in order: RequestID, RealIP (optional),
// Recoverer, security headers, CORS, compression, body size limit, metrics
// and access logging, plus JSON NotFound / MethodNotAllowed handlers.
// Routes are mounted by the caller.
func New(coreCfg *config.CoreConfig, opts Options, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(logging.Recoverer(logger))

	r.Use(middleware.SecureDefaults())
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(middleware.Compress(coreCfg.EnableCompression, coreCfg.CompressionLevel))
	r.Use(middleware.LimitBodySize(coreCfg.MaxRequestBodyBytes))

	if opts.EnableMetrics {
		r.Use(metrics.HTTPMetrics)
	}
	r.Use(logging.RequestLogger(logger))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
