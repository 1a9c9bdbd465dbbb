// middleware/sizelimit.go
package middleware

import (
	"net/http"
)

// LimitBodySize caps request bodies at maxBytes. maxBytes <= 0 means no limit.
// Apply it early so handlers never read an oversized batch.
func LimitBodySize(maxBytes int64) func(next http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
