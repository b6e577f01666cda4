package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/solartech/sitio/config"
	"github.com/solartech/sitio/internal/app/notify"
	"github.com/solartech/sitio/internal/app/pipeline"
	"github.com/solartech/sitio/internal/app/ratelimit"
	"github.com/solartech/sitio/internal/app/siteconfig"
	"go.uber.org/zap"
)

// Deps are the long-lived collaborators shared by the handlers.
type Deps struct {
	// Redis is nil when rate-limit state is kept in memory.
	Redis    *redis.Client
	Memory   *ratelimit.MemoryStore
	Limiter  *ratelimit.FixedWindow
	Sites    *siteconfig.FileProvider
	Notifier *notify.Notifier
	Pipeline *pipeline.Pipeline
}

// ConnectBackends connects Redis when configured and assembles the pipeline.
func ConnectBackends(ctx context.Context, core *config.CoreConfig, cfg AppConfig, logger *zap.Logger) (Deps, error) {
	var deps Deps

	var store ratelimit.Store
	if cfg.RedisURL != "" {
		client, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return Deps{}, err
		}
		deps.Redis = client
		store = ratelimit.NewRedisStore(client, ratelimit.DefaultKeyPrefix)
		logger.Info("rate limiter using redis", zap.String("addr", client.Options().Addr))
	} else {
		deps.Memory = ratelimit.NewMemoryStore()
		store = deps.Memory
		logger.Info("rate limiter using process memory")
	}
	deps.Limiter = ratelimit.NewFixedWindow(store, cfg.RateLimitWindow, cfg.RateLimitMax)
	logger.Info("contact rate limit",
		zap.Int("max", deps.Limiter.Limit()), zap.Duration("window", deps.Limiter.Window()))

	deps.Sites = siteconfig.NewFileProvider(cfg.SiteConfigPath, logger)
	if _, err := deps.Sites.Reload(); err != nil {
		// /api/config answers 500 and the notifier uses defaults until the
		// file becomes readable.
		logger.Warn("site config not loaded at startup", zap.String("path", deps.Sites.Path()), zap.Error(err))
	}

	transport, err := notify.NewTransport(notify.TransportOptions{
		Kind: cfg.NotifyTransport,
		Env:  core.Env,
		SMTP: notify.SMTPConfig{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUser,
			Password:   cfg.SMTPPass,
			SkipVerify: cfg.SMTPSkipVerify,
		},
		Postmark: notify.PostmarkConfig{
			ServerToken:  cfg.PostmarkServerToken,
			AccountToken: cfg.PostmarkAccountToken,
		},
		FormspreeEndpoint: cfg.FormspreeEndpoint,
		Timeout:           cfg.NotifyTimeout,
	}, logger)
	if err != nil {
		_ = deps.close()
		return Deps{}, fmt.Errorf("notify transport: %w", err)
	}
	logger.Info("contact notifications via " + transport.Name())

	deps.Notifier = notify.New(transport, notify.Config{
		From:         cfg.NotifyFrom,
		ContactEmail: cfg.ContactEmail,
		SMTPUser:     cfg.SMTPUser,
		CompanyName:  cfg.CompanyName,
		Timeout:      cfg.NotifyTimeout,
	}, logger)

	deps.Pipeline = pipeline.New(pipeline.Deps{
		Limiter:  deps.Limiter,
		Notifier: deps.Notifier,
		Sites:    deps.Sites,
		Logger:   logger,
	})
	return deps, nil
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis_url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// Start runs the memory-store janitor and the site config watcher until ctx
// is cancelled.
func Start(ctx context.Context, _ *config.CoreConfig, cfg AppConfig, deps Deps, logger *zap.Logger) error {
	if deps.Memory != nil {
		go deps.Memory.RunJanitor(ctx, cfg.RateLimitWindow, cfg.RateLimitWindow)
	}
	if cfg.SiteConfigWatch {
		go func() {
			if err := deps.Sites.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("site config watcher stopped", zap.Error(err))
			}
		}()
	}
	return nil
}

// Close releases the Redis connection pool.
func Close(deps Deps) error {
	return deps.close()
}

func (d Deps) close() error {
	if d.Redis == nil {
		return nil
	}
	return d.Redis.Close()
}
