// middleware/notfound.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/eaicheck/httputil"
	"go.uber.org/zap"
)

// NotFoundHandler logs a 404 and answers with a JSON error body.
// Pass it to chi.Router.NotFound.
func NotFoundHandler(logger *zap.Logger) http.HandlerFunc {
	return statusHandler(logger, http.StatusNotFound, "not_found",
		"The requested resource was not found")
}

// MethodNotAllowedHandler logs a 405 and answers with a JSON error body.
// Pass it to chi.Router.MethodNotAllowed.
func MethodNotAllowedHandler(logger *zap.Logger) http.HandlerFunc {
	return statusHandler(logger, http.StatusMethodNotAllowed, "method_not_allowed",
		"The requested HTTP method is not allowed for this resource")
}

func statusHandler(logger *zap.Logger, status int, code, message string) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Info(code,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_ip", r.RemoteAddr),
		)
		httputil.JSONError(w, status, code, message)
	}
}
