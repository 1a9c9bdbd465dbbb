// health/health.go
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/eaicheck/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Check is a single health probe. It returns nil when the dependency is
// healthy. ctx derives from the request and carries the probe timeout.
type Check func(ctx context.Context) error

// Response is the JSON body of the health endpoint.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DefaultTimeout bounds each probe.
const DefaultTimeout = 2 * time.Second

// Handler runs all checks concurrently on each request. It answers 200
// {"status":"ok"} when every check passes and 503 {"status":"error"} with
// per-check results otherwise. With no checks it is a plain liveness probe.
func Handler(checks map[string]Check, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(names) == 0 {
			httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), DefaultTimeout)
		defer cancel()

		errs := make([]error, len(names))
		var wg sync.WaitGroup
		for i, name := range names {
			check := checks[name]
			if check == nil {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = check(ctx)
			}()
		}
		wg.Wait()

		resp := Response{Status: "ok", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for i, name := range names {
			if errs[i] == nil {
				resp.Checks[name] = "ok"
				continue
			}
			resp.Status = "error"
			resp.Checks[name] = "error: " + errs[i].Error()
			status = http.StatusServiceUnavailable
			logger.Warn("health check failed", zap.String("check", name), zap.Error(errs[i]))
		}
		httputil.WriteJSON(w, status, resp)
	})
}

// Mount attaches GET /health to r.
func Mount(r chi.Router, checks map[string]Check, logger *zap.Logger) {
	r.Method(http.MethodGet, "/health", Handler(checks, logger))
}
