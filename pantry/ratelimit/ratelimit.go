// ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyLimiter keeps one token bucket per key (e.g., per client IP).
type KeyLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	stop     chan struct{}
	once     sync.Once
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyLimiter creates a limiter allowing rps requests per second per key,
// with bursts up to burst. Keys idle for longer than ttl are forgotten.
func NewKeyLimiter(rps float64, burst int, ttl time.Duration) *KeyLimiter {
	if ttl <= 0 {
		ttl = time.Hour
	}
	kl := &KeyLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go kl.cleanup()
	return kl
}

// Allow reports whether one request for key may proceed now.
func (kl *KeyLimiter) Allow(key string) bool {
	return kl.AllowN(key, 1)
}

// AllowN reports whether n requests for key may proceed now. A batch counts
// as n requests.
func (kl *KeyLimiter) AllowN(key string, n int) bool {
	now := time.Now()

	kl.mu.Lock()
	e, ok := kl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(kl.limit, kl.burst)}
		kl.limiters[key] = e
	}
	e.lastSeen = now
	kl.mu.Unlock()

	return e.limiter.AllowN(now, n)
}

// Burst returns the bucket size; AllowN with a larger n always fails.
func (kl *KeyLimiter) Burst() int {
	return kl.burst
}

// Size returns the number of tracked keys.
func (kl *KeyLimiter) Size() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.limiters)
}

// Stop ends the cleanup goroutine.
func (kl *KeyLimiter) Stop() {
	kl.once.Do(func() { close(kl.stop) })
}

func (kl *KeyLimiter) cleanup() {
	ticker := time.NewTicker(kl.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stop:
			return
		case now := <-ticker.C:
			kl.mu.Lock()
			for key, e := range kl.limiters {
				if now.Sub(e.lastSeen) > kl.ttl {
					delete(kl.limiters, key)
				}
			}
			kl.mu.Unlock()
		}
	}
}

// KeyFunc extracts a key from an HTTP request for rate limiting.
type KeyFunc func(r *http.Request) string

// IPKeyFunc returns the host part of RemoteAddr. Forwarded headers are not
// consulted here; mount chi's RealIP middleware in front when the service
// sits behind a trusted proxy.
func IPKeyFunc(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Config configures the rate limit middleware.
type Config struct {
	// RPS is requests per second per key. Zero or less disables limiting.
	RPS float64

	// Burst is the maximum burst size. Defaults to 1.
	Burst int

	// KeyFunc defaults to IPKeyFunc.
	KeyFunc KeyFunc

	// TTL is how long to keep inactive keys. Defaults to 1 hour.
	TTL time.Duration

	// OnLimited writes the response for a limited request. Defaults to a
	// plain-text 429.
	OnLimited func(w http.ResponseWriter, r *http.Request)
}

// Middleware returns HTTP middleware that applies per-key rate limiting,
// along with the limiter so the caller can Stop it on shutdown. When
// cfg.RPS <= 0 the middleware passes everything through and the limiter is
// nil.
func Middleware(cfg Config) (func(http.Handler) http.Handler, *KeyLimiter) {
	if cfg.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPKeyFunc
	}
	if cfg.OnLimited == nil {
		cfg.OnLimited = defaultOnLimited
	}

	limiter := NewKeyLimiter(cfg.RPS, cfg.Burst, cfg.TTL)
	retryAfter := strconv.Itoa(max(1, int(1/cfg.RPS)))

	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(cfg.KeyFunc(r)) {
				w.Header().Set("Retry-After", retryAfter)
				cfg.OnLimited(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	return mw, limiter
}

func defaultOnLimited(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
}
