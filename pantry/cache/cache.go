// cache/cache.go
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Cache stores check results by key. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrNotFound if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	// If ttl is 0, the value never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

var (
	ErrNotFound = errors.New("cache: key not found")
	ErrClosed   = errors.New("cache: cache is closed")
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Memory  MemoryConfig
	Redis   RedisConfig
}

// Open builds the cache named by opts.Backend. Backend "none" returns a
// cache that never stores anything.
func Open(opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemoryWithConfig(opts.Memory), nil
	case BackendRedis:
		return NewRedisWithConfig(opts.Redis)
	case BackendNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", opts.Backend)
	}
}

// Key derives a fixed-length key from raw input so that arbitrary bytes
// (including invalid UTF-8) never reach the backend verbatim.
func Key(namespace string, raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return namespace + ":" + hex.EncodeToString(sum[:])
}

// GetJSON retrieves and unmarshals a JSON value.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, error) {
	var result T
	data, err := c.Get(ctx, key)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, err
	}
	return result, nil
}

// SetJSON marshals and stores a value as JSON.
func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

// Nop is a Cache that stores nothing.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, error)                { return nil, ErrNotFound }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Ping(context.Context) error                                 { return nil }
func (Nop) Close() error                                               { return nil }
