package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestKeyLimiter_PerKeyBuckets(t *testing.T) {
	kl := NewKeyLimiter(0.001, 2, time.Hour)
	defer kl.Stop()

	if !kl.Allow("a") || !kl.Allow("a") {
		t.Fatal("burst of 2 rejected")
	}
	if kl.Allow("a") {
		t.Error("third request allowed")
	}
	if !kl.Allow("b") {
		t.Error("other key limited")
	}
	if kl.Size() != 2 {
		t.Errorf("Size = %d, want 2", kl.Size())
	}
}

func TestKeyLimiter_AllowN(t *testing.T) {
	kl := NewKeyLimiter(0.001, 5, time.Hour)
	defer kl.Stop()

	if kl.AllowN("a", 6) {
		t.Error("AllowN above burst succeeded")
	}
	if !kl.AllowN("a", 5) {
		t.Error("AllowN at burst failed")
	}
}

func TestIPKeyFunc(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"noport", "noport"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tt.remote
		r.Header.Set("X-Forwarded-For", "203.0.113.9")
		if got := IPKeyFunc(r); got != tt.want {
			t.Errorf("IPKeyFunc(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	mw, kl := Middleware(Config{RPS: 0.5, Burst: 1})
	defer kl.Stop()

	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/check", nil))
		return rec
	}

	if rec := do(); rec.Code != http.StatusNoContent {
		t.Fatalf("first status = %d, want 204", rec.Code)
	}
	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want \"2\"", got)
	}
}

func TestMiddleware_Disabled(t *testing.T) {
	mw, kl := Middleware(Config{})
	if kl != nil {
		t.Fatal("limiter created with RPS 0")
	}
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
}
