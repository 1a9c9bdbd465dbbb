package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/eaicheck/config"
)

func TestRequireJSON(t *testing.T) {
	tests := []struct {
		method string
		ct     string
		want   int
	}{
		{http.MethodPost, "application/json", http.StatusOK},
		{http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{http.MethodPost, "application/problem+json", http.StatusOK},
		{http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{http.MethodPost, "", http.StatusUnsupportedMediaType},
		{http.MethodGet, "", http.StatusOK},
	}
	h := RequireJSON()(okHandler)
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.ct, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/check", strings.NewReader("{}"))
			if tt.ct != "" {
				req.Header.Set("Content-Type", tt.ct)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLimitBodySize(t *testing.T) {
	var readErr error
	h := LimitBodySize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	if readErr == nil {
		t.Error("oversized body read without error")
	}
}

func TestCORSFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.CORS.EnableCORS = true
	cfg.CORS.CORSAllowedOrigins = []string{"https://app.example"}

	h := CORSFromConfig(cfg)(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/api/check", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	rec = httptest.NewRecorder()
	CORSFromConfig(&config.Config{})(okHandler).ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disabled CORS set Access-Control-Allow-Origin = %q", got)
	}
}

func TestCompressFromConfig(t *testing.T) {
	body := strings.Repeat(`{"valid":true}`, 200)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/check", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	rec := httptest.NewRecorder()
	CompressFromConfig(&config.Config{EnableCompression: true})(inner).ServeHTTP(rec, req)
	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", got)
	}

	rec = httptest.NewRecorder()
	CompressFromConfig(&config.Config{})(inner).ServeHTTP(rec, req)
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("Content-Encoding = %q with compression disabled", got)
	}
}

func TestNotFoundHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFoundHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"not_found"`) {
		t.Errorf("got %d %s", rec.Code, rec.Body.String())
	}
}
