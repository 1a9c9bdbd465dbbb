// app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/eaicheck/checker"
	"github.com/dalemusser/eaicheck/config"
	"github.com/dalemusser/eaicheck/eai"
	"github.com/dalemusser/eaicheck/httputil"
	"github.com/dalemusser/eaicheck/logging"
	"github.com/dalemusser/eaicheck/metrics"
	"github.com/dalemusser/eaicheck/middleware"
	"github.com/dalemusser/eaicheck/pantry/cache"
	"github.com/dalemusser/eaicheck/pantry/health"
	"github.com/dalemusser/eaicheck/pantry/pprof"
	"github.com/dalemusser/eaicheck/pantry/ratelimit"
	"github.com/dalemusser/eaicheck/pantry/version"
	"github.com/dalemusser/eaicheck/router"
	"github.com/dalemusser/eaicheck/server"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Name is used for logging only.
const Name = "eaicheck"

// Deps holds what the handler needs beyond config. Close releases it.
type Deps struct {
	Engine *eai.Engine
	Cache  cache.Cache

	limiter *ratelimit.KeyLimiter
}

// Close stops the API rate limiter and closes the cache.
func (d *Deps) Close() error {
	if d.limiter != nil {
		d.limiter.Stop()
	}
	if d.Cache != nil {
		return d.Cache.Close()
	}
	return nil
}

// NewEngine builds the address engine for cfg and verifies its Unicode
// support. A failed probe is fatal: the service never runs without
// normalization or IDNA.
func NewEngine(cfg *config.Config, logger *zap.Logger) (*eai.Engine, error) {
	engine := eai.New(
		eai.WithSink(logging.NewSink(logger, cfg.Env == "prod")),
		eai.WithQuotedLocal(cfg.Checker.AllowQuotedLocal),
	)
	if err := eai.CheckCapability(engine.Unicode()); err != nil {
		return nil, err
	}
	return engine, nil
}

// OpenCache opens the result cache named by cfg.Cache.Backend. A Redis
// backend that cannot be reached fails here rather than on first use.
func OpenCache(cfg *config.Config) (cache.Cache, error) {
	return cache.Open(cache.Options{
		Backend: cfg.Cache.Backend,
		Redis: cache.RedisConfig{
			Address:   cfg.Cache.RedisAddr,
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			KeyPrefix: cfg.Cache.RedisKeyPrefix,
		},
	})
}

// cacheNamespace keeps results computed with quoted local parts apart from
// the default rules when both share a Redis.
func cacheNamespace(cfg *config.Config) string {
	if cfg.Checker.AllowQuotedLocal {
		return "check-quoted"
	}
	return "check"
}

// BuildHandler assembles the router:
//
//	GET  /                  form
//	GET  /check             result page
//	     /api/check         JSON check (GET ?email= or POST {"email":...})
//	POST /api/check/batch   JSON batch
//	GET  /health, /version, /metrics
//	GET  /debug/pprof/*     only with enable_pprof, loopback clients only
func BuildHandler(cfg *config.Config, deps *Deps, logger *zap.Logger) (http.Handler, error) {
	if deps == nil || deps.Engine == nil {
		return nil, errors.New("app: engine is required")
	}
	if deps.Cache == nil {
		deps.Cache = cache.Nop{}
	}

	views, err := checker.NewViews(logger)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	svc := checker.NewService(deps.Engine, checker.Options{
		Cache:     deps.Cache,
		TTL:       cfg.Cache.TTL,
		Namespace: cacheNamespace(cfg),
		Logger:    logger,
	})

	limit, limiter := ratelimit.Middleware(ratelimit.Config{
		RPS:   float64(cfg.Checker.RateLimitRPS),
		Burst: cfg.Checker.RateLimitBurst,
		OnLimited: func(w http.ResponseWriter, _ *http.Request) {
			httputil.JSONError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
		},
	})
	deps.limiter = limiter

	h := checker.NewHandler(svc, views, checker.HandlerOptions{
		BatchMax: cfg.Checker.BatchMax,
		Limiter:  limiter,
		Logger:   logger,
	})

	r := router.New(cfg, logger)
	h.MountWeb(r)
	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.CORSFromConfig(cfg))
		api.Use(limit)
		h.MountAPI(api)
	})

	health.Mount(r, map[string]health.Check{
		"unicode": func(context.Context) error { return eai.CheckCapability(deps.Engine.Unicode()) },
		"cache":   deps.Cache.Ping,
	}, logger)
	version.Mount(r)
	r.Handle("/metrics", metrics.Handler())
	if cfg.EnablePprof {
		pprof.Mount(r, logger)
	}

	return r, nil
}

// Run executes the startup sequence:
//
//  1. Bootstrap logger
//  2. Load config
//  3. Build final logger based on config
//  4. Register default metrics
//  5. Build the engine and probe Unicode support
//  6. Open the result cache
//  7. Wire shutdown signals to a context
//  8. Build the HTTP handler
//  9. Start the HTTP(S) server and block until shutdown
func Run(ctx context.Context, args []string) error {
	// 1) Bootstrap logger for early startup
	bootstrap := logging.BootstrapLogger()
	defer bootstrap.Sync()
	bootstrap.Info("bootstrap logger initialized", zap.String("app", Name), zap.String("version", version.String()))

	// 2) Load config
	cfg, err := config.LoadArgs(bootstrap, args)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return err
	}
	bootstrap.Info("config loaded",
		zap.String("env", cfg.Env),
		zap.String("log_level", cfg.LogLevel),
	)

	// 3) Build final logger
	logger, err := logging.BuildLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		bootstrap.Error("logger build failed", zap.Error(err))
		return err
	}
	defer logger.Sync()
	logger.Info("logger initialized", zap.String("app", Name))
	logger.Debug("effective config", zap.String("config", cfg.Dump()))
	httputil.SetLogger(logger)

	// 4) Register default metrics (Go, process, HTTP histograms, checks)
	metrics.RegisterDefault(logger)

	// 5) Engine
	engine, err := NewEngine(cfg, logger)
	if err != nil {
		logger.Error("unicode capability check failed", zap.Error(err))
		return err
	}
	logger.Info("unicode capability ok", zap.String("x_text", version.Get().TextVersion))

	// 6) Cache
	c, err := OpenCache(cfg)
	if err != nil {
		logger.Error("cache open failed", zap.String("backend", cfg.Cache.Backend), zap.Error(err))
		return err
	}
	deps := &Deps{Engine: engine, Cache: c}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.Warn("cache close failed", zap.Error(err))
		}
	}()
	logger.Info("cache ready", zap.String("backend", cfg.Cache.Backend), zap.Duration("ttl", cfg.Cache.TTL))

	// 7) Wire shutdown signals → context
	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	// 8) Build HTTP handler (router + middleware + routes)
	handler, err := BuildHandler(cfg, deps, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return err
	}

	// 9) Start HTTP server
	if err := server.ListenAndServeWithContext(ctx, cfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
