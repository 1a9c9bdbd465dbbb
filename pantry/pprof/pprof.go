// pprof/pprof.go
package pprof

import (
	"net"
	"net/http"
	stdpprof "net/http/pprof"

	"github.com/dalemusser/eaicheck/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Mount attaches the standard Go pprof handlers under /debug/pprof, reachable
// only from loopback addresses. Profiling a slow IDNA path is the intended use;
// keep enable_pprof off in production.
func Mount(r chi.Router, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Warn("pprof endpoints enabled", zap.String("prefix", "/debug/pprof"))

	r.Route("/debug/pprof", func(r chi.Router) {
		r.Use(LoopbackOnly)

		r.Get("/", stdpprof.Index)
		r.Get("/cmdline", stdpprof.Cmdline)
		r.Get("/profile", stdpprof.Profile)
		r.Get("/symbol", stdpprof.Symbol)
		r.Post("/symbol", stdpprof.Symbol)
		r.Get("/trace", stdpprof.Trace)

		// heap, goroutine, allocs, block, ...
		r.Get("/{name}", stdpprof.Index)
	})
}

// LoopbackOnly answers 403 unless RemoteAddr is a loopback IP. Mount it after
// chi's RealIP only when the proxy in front is trusted.
func LoopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
			httputil.JSONError(w, http.StatusForbidden, "forbidden", "profiling is only available from localhost")
			return
		}
		next.ServeHTTP(w, r)
	})
}
