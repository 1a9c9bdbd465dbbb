// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/eaicheck/config"
	"github.com/go-chi/cors"
)

// CORSFromConfig applies cfg.CORS, or does nothing when CORS is disabled.
// It is meant for the JSON API routes.
func CORSFromConfig(cfg *config.Config) func(next http.Handler) http.Handler {
	if cfg == nil || !cfg.CORS.EnableCORS {
		return func(next http.Handler) http.Handler { return next }
	}

	methods := cfg.CORS.CORSAllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	headers := cfg.CORS.CORSAllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Accept", "Content-Type"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.CORSAllowedOrigins,
		AllowedMethods:   methods,
		AllowedHeaders:   headers,
		ExposedHeaders:   cfg.CORS.CORSExposedHeaders,
		AllowCredentials: cfg.CORS.CORSAllowCredentials,
		MaxAge:           cfg.CORS.CORSMaxAge,
	})
}
