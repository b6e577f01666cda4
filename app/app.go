// Package app runs a service through a fixed startup sequence built from
// application-supplied hooks.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/solartech/sitio/config"
	"github.com/solartech/sitio/httputil"
	"github.com/solartech/sitio/logging"
	"github.com/solartech/sitio/metrics"
	"github.com/solartech/sitio/server"
	"github.com/solartech/sitio/version"
	"go.uber.org/zap"
)

// Hooks are the integration points an application provides to Run.
// C is the app config type, D the bundle of connected backends.
type Hooks[C any, D any] struct {
	// Name appears in logs and as the logger's service field.
	Name string

	// LoadConfig returns the core config and the app config.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, C, error)

	// ConnectBackends connects Redis or anything else the app needs. ctx
	// carries core.BackendConnectTimeout.
	ConnectBackends func(ctx context.Context, core *config.CoreConfig, appCfg C, logger *zap.Logger) (D, error)

	// Start launches background work (file watchers, janitors). It must not
	// block; goroutines stop when ctx is cancelled. Optional.
	Start func(ctx context.Context, core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) error

	// BuildHandler returns the final handler: router, middleware and routes.
	BuildHandler func(core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) (http.Handler, error)

	// Close releases backends after the server stops. Optional.
	Close func(deps D) error
}

// Run loads config, builds the logger, connects backends, starts background
// work and serves until ctx is cancelled or SIGINT/SIGTERM arrives.
func Run[C any, D any](ctx context.Context, hooks Hooks[C, D]) error {
	if hooks.LoadConfig == nil || hooks.ConnectBackends == nil || hooks.BuildHandler == nil {
		return errors.New("app: LoadConfig, ConnectBackends and BuildHandler are required")
	}

	bootstrap := logging.BootstrapLogger()
	defer bootstrap.Sync()

	coreCfg, appCfg, err := hooks.LoadConfig(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}
	bootstrap.Info("config loaded",
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel),
	)

	logger, err := logging.BuildLogger(coreCfg.LogLevel, coreCfg.Env, hooks.Name)
	if err != nil {
		bootstrap.Error("logger build failed", zap.Error(err))
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	httputil.SetLogger(logger)
	logger.Info("starting", zap.String("version", version.String()))
	logger.Debug("core config", zap.String("config", coreCfg.Dump()))

	metrics.RegisterDefault(logger)

	connectCtx, cancelConnect := context.WithTimeout(ctx, coreCfg.BackendConnectTimeout)
	deps, err := hooks.ConnectBackends(connectCtx, coreCfg, appCfg, logger)
	cancelConnect()
	if err != nil {
		logger.Error("backend connect failed", zap.Error(err))
		return fmt.Errorf("connect backends: %w", err)
	}
	if hooks.Close != nil {
		defer func() {
			if err := hooks.Close(deps); err != nil {
				logger.Warn("backend close failed", zap.Error(err))
			}
		}()
	}

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	if hooks.Start != nil {
		if err := hooks.Start(ctx, coreCfg, appCfg, deps, logger); err != nil {
			logger.Error("startup tasks failed", zap.Error(err))
			return fmt.Errorf("start: %w", err)
		}
	}

	handler, err := hooks.BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return fmt.Errorf("build handler: %w", err)
	}

	if err := server.ListenAndServeWithContext(ctx, coreCfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
