// middleware/compress.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/eaicheck/config"
	"github.com/go-chi/chi/v5/middleware"
)

// compressLevel balances speed and ratio for small HTML and JSON bodies.
const compressLevel = 5

// CompressFromConfig returns gzip/deflate compression for HTML and JSON
// responses when cfg.EnableCompression is set, and a no-op otherwise.
func CompressFromConfig(cfg *config.Config) func(next http.Handler) http.Handler {
	if cfg == nil || !cfg.EnableCompression {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.Compress(compressLevel, "text/html", "application/json")
}
