// router/router.go
package router

import (
	"github.com/dalemusser/eaicheck/config"
	"github.com/dalemusser/eaicheck/logging"
	"github.com/dalemusser/eaicheck/metrics"
	"github.com/dalemusser/eaicheck/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New creates a chi.Router with the standard middleware stack:
// RequestID, RealIP, Recoverer, security headers, body size limit,
// compression, metrics, request logging, and JSON 404/405 handlers.
// Routes are left to the caller.
func New(cfg *config.Config, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))
	r.Use(middleware.SecureDefaults())
	r.Use(middleware.LimitBodySize(cfg.MaxRequestBodyBytes))
	r.Use(middleware.CompressFromConfig(cfg))
	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
