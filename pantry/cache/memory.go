// cache/memory.go
package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process cache with TTL support and a size bound. When full,
// the entry closest to expiry is evicted.
type Memory struct {
	mu         sync.RWMutex
	items      map[string]item
	maxEntries int
	closed     bool
	stopCh     chan struct{}
	doneCh     chan struct{}
	now        func() time.Time
}

type item struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (it item) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

// MemoryConfig configures the in-memory cache.
type MemoryConfig struct {
	// CleanupInterval is how often to remove expired items.
	// Default: 1 minute. Negative disables background cleanup.
	CleanupInterval time.Duration

	// MaxEntries bounds the number of stored items.
	// Default: 10000.
	MaxEntries int
}

// NewMemory creates an in-memory cache with default settings.
func NewMemory() *Memory {
	return NewMemoryWithConfig(MemoryConfig{})
}

// NewMemoryWithConfig creates an in-memory cache with custom configuration.
func NewMemoryWithConfig(cfg MemoryConfig) *Memory {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10000
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Minute
	}

	m := &Memory{
		items:      make(map[string]item),
		maxEntries: cfg.MaxEntries,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		now:        time.Now,
	}

	if cfg.CleanupInterval > 0 {
		go m.cleanup(cfg.CleanupInterval)
	} else {
		close(m.doneCh)
	}
	return m
}

// Get retrieves a copy of the value stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	it, ok := m.items[key]
	if !ok || it.expired(m.now()) {
		return nil, ErrNotFound
	}
	return append([]byte(nil), it.value...), nil
}

// Set stores a copy of value with the given TTL.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	now := m.now()
	it := item{value: append([]byte(nil), value...)}
	if ttl > 0 {
		it.expiresAt = now.Add(ttl)
	}

	if _, exists := m.items[key]; !exists && len(m.items) >= m.maxEntries {
		m.evictLocked(now)
	}
	m.items[key] = it
	return nil
}

// Ping reports ErrClosed after Close.
func (m *Memory) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.stopCh)
	m.mu.Unlock()

	<-m.doneCh
	return nil
}

// Len returns the number of stored items, including expired ones not yet
// swept.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// evictLocked drops expired items, or failing that the one expiring soonest.
// Items without expiry go last.
func (m *Memory) evictLocked(now time.Time) {
	if m.removeExpiredLocked(now) > 0 {
		return
	}
	var (
		victim string
		best   time.Time
		found  bool
	)
	for k, it := range m.items {
		if !found || (!it.expiresAt.IsZero() && (best.IsZero() || it.expiresAt.Before(best))) {
			victim, best, found = k, it.expiresAt, true
		}
	}
	if found {
		delete(m.items, victim)
	}
}

func (m *Memory) removeExpiredLocked(now time.Time) int {
	n := 0
	for k, it := range m.items {
		if it.expired(now) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

func (m *Memory) cleanup(interval time.Duration) {
	defer close(m.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.mu.Lock()
			m.removeExpiredLocked(m.now())
			m.mu.Unlock()
		}
	}
}
