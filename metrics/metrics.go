// metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/eaicheck/eai"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	reqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.3, 1.2},
		},
		[]string{"path", "method", "status"},
	)

	checksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eai_checks_total",
			Help: "Address checks by outcome and error kind.",
		},
		[]string{"outcome", "kind"},
	)

	internationalizedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eai_internationalized_total",
			Help: "Checked addresses split by whether they contain non-ASCII characters.",
		},
		[]string{"eai"},
	)
)

// RegisterDefault registers the Go runtime and process collectors plus this
// package's collectors on the default registry. Calling it twice is harmless.
// A registration failure other than AlreadyRegistered is fatal.
func RegisterDefault(logger *zap.Logger) {
	mustRegister(logger, "Go collector", collectors.NewGoCollector())
	mustRegister(logger, "process collector", collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mustRegister(logger, "HTTP request histogram", reqDuration)
	mustRegister(logger, "check counter", checksTotal)
	mustRegister(logger, "internationalized counter", internationalizedTotal)
}

func mustRegister(logger *zap.Logger, name string, c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return
		}
		if logger != nil {
			logger.Fatal("failed to register "+name, zap.Error(err))
		}
		panic("metrics: failed to register " + name + ": " + err.Error())
	}
}

// RecordCheck counts one completed address check. Valid addresses carry
// eai.NoError, labeled "none".
func RecordCheck(valid bool, kind eai.ErrorKind, internationalized bool) {
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	label := kind.String()
	if kind == eai.NoError {
		label = "none"
	}
	checksTotal.WithLabelValues(outcome, label).Inc()
	internationalizedTotal.WithLabelValues(strconv.FormatBool(internationalized)).Inc()
}

// HTTPMetrics records request duration into http_request_duration_seconds.
// The path label is the chi route pattern; requests that matched no route
// are labeled "unmatched" so arbitrary URLs cannot grow the label set.
// Mount it after the recoverer so panics are recorded as 500.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		protoMajor := r.ProtoMajor
		if protoMajor < 1 {
			protoMajor = 1
		}
		ww := middleware.NewWrapResponseWriter(w, protoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if status < 100 || status > 599 {
			status = http.StatusInternalServerError
		}

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		reqDuration.WithLabelValues(path, r.Method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
