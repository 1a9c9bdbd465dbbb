// cache/redis.go
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements a Redis-backed cache, shared across instances.
type Redis struct {
	client    redis.UniversalClient
	keyPrefix string
}

// RedisConfig configures the Redis cache.
type RedisConfig struct {
	// Client is an existing Redis client.
	// If provided, the connection options are ignored.
	Client redis.UniversalClient

	// Address is the Redis server address (e.g., "localhost:6379").
	Address  string
	Password string
	DB       int

	// KeyPrefix is prepended to all keys.
	KeyPrefix string

	// Default: 5 seconds.
	DialTimeout time.Duration

	// Default: 3 seconds for both.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewRedisWithConfig connects to Redis and verifies the connection with PING.
func NewRedisWithConfig(cfg RedisConfig) (*Redis, error) {
	client := cfg.Client
	if client == nil {
		if cfg.Address == "" {
			return nil, errors.New("cache: redis address required")
		}
		client = redis.NewClient(&redis.Options{
			Addr:         cfg.Address,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  orDefault(cfg.DialTimeout, 5*time.Second),
			ReadTimeout:  orDefault(cfg.ReadTimeout, 3*time.Second),
			WriteTimeout: orDefault(cfg.WriteTimeout, 3*time.Second),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Redis{client: client, keyPrefix: cfg.KeyPrefix}, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}

func (r *Redis) prefixKey(key string) string {
	return r.keyPrefix + key
}

// Get retrieves a value by key.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := r.client.Get(ctx, r.prefixKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return result, nil
}

// Set stores a value with the given TTL.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefixKey(key), value, ttl).Err()
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
