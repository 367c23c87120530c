// Package cache holds the injected response cache used for AI calls.
// L1 is an in-process map with TTL and a size bound; L2 is an optional Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"atsscorer/internal/errors"

	"github.com/redis/go-redis/v9"
)

// Cache is the collaborator AI clients depend on.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// Options configures a Tiered cache.
type Options struct {
	TTL             time.Duration
	MaxEntries      int
	CleanupInterval time.Duration
	RedisURL        string // empty disables L2
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
	Redis   bool  `json:"redis"`
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Tiered implements Cache with L1 memory + optional L2 Redis.
type Tiered struct {
	mu         sync.Mutex
	l1         map[string]entry
	rdb        *redis.Client // nil if Redis unavailable
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	logger     *errors.Logger

	hits   atomic.Int64
	misses atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
}

var _ Cache = (*Tiered)(nil)

// New builds a cache and starts its cleanup loop. An unreachable Redis is
// logged and L2 stays disabled.
func New(ctx context.Context, opts Options, logger *errors.Logger) *Tiered {
	c := newTiered(opts.TTL, opts.MaxEntries, logger)

	if opts.RedisURL != "" {
		rdb, err := connectRedis(ctx, opts.RedisURL)
		if err != nil {
			c.logger.Warn("cache: redis unavailable, L2 disabled", "error", err.Error())
		} else {
			c.rdb = rdb
			c.logger.Info("cache: L2 redis connected")
		}
	}

	c.logger.Debug("cache: initialized", "ttl", opts.TTL, "redis", c.rdb != nil, "max_entries", opts.MaxEntries)
	go c.cleanupLoop(opts.CleanupInterval)
	return c
}

func newTiered(ttl time.Duration, maxEntries int, logger *errors.Logger) *Tiered {
	if logger == nil {
		logger = errors.NewDiscard()
	}
	return &Tiered{
		l1:         make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		logger:     logger,
		stop:       make(chan struct{}),
	}
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid redis URL", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeCacheFailed, "redis unreachable", err)
	}
	return rdb, nil
}

// Key builds a deterministic cache key from parts.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("ats:%x", hash[:16])
}

// Get tries L1, then L2. An L2 hit repopulates L1.
func (c *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	e, ok := c.l1[key]
	if ok && c.now().After(e.expiresAt) {
		delete(c.l1, key)
		ok = false
	}
	c.mu.Unlock()
	if ok {
		c.hits.Add(1)
		return e.data, true
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			c.hits.Add(1)
			c.store(key, data)
			return data, true
		}
		if err != redis.Nil {
			c.logger.Debug("cache: L2 get failed", "error", err.Error())
		}
	}

	c.misses.Add(1)
	return nil, false
}

// Set stores value in both tiers.
func (c *Tiered) Set(ctx context.Context, key string, value []byte) {
	c.store(key, value)
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, value, c.ttl).Err(); err != nil {
			c.logger.Debug("cache: L2 set failed", "error", err.Error())
		}
	}
}

func (c *Tiered) store(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.l1[key]; !exists {
		c.evictLocked()
	}
	c.l1[key] = entry{data: value, expiresAt: c.now().Add(c.ttl)}
}

// evictLocked makes room for one entry: expired entries go first, then the
// entry closest to expiry (the oldest, since every entry shares one TTL).
func (c *Tiered) evictLocked() {
	if c.maxEntries <= 0 || len(c.l1) < c.maxEntries {
		return
	}
	now := c.now()
	for k, e := range c.l1 {
		if now.After(e.expiresAt) {
			delete(c.l1, k)
		}
	}
	for len(c.l1) >= c.maxEntries {
		var oldestKey string
		var oldestAt time.Time
		for k, e := range c.l1 {
			if oldestKey == "" || e.expiresAt.Before(oldestAt) || (e.expiresAt.Equal(oldestAt) && k < oldestKey) {
				oldestKey, oldestAt = k, e.expiresAt
			}
		}
		delete(c.l1, oldestKey)
	}
}

// Purge drops expired L1 entries and returns how many were removed.
func (c *Tiered) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for k, e := range c.l1 {
		if now.After(e.expiresAt) {
			delete(c.l1, k)
			removed++
		}
	}
	return removed
}

func (c *Tiered) cleanupLoop(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := c.Purge(); n > 0 {
				c.logger.Debug("cache: purged expired entries", "count", n)
			}
		case <-c.stop:
			return
		}
	}
}

// Stats returns current counters.
func (c *Tiered) Stats() Stats {
	c.mu.Lock()
	n := len(c.l1)
	c.mu.Unlock()
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: n, Redis: c.rdb != nil}
}

// Close stops the cleanup loop and the Redis client.
func (c *Tiered) Close() error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stop)
		if c.rdb != nil {
			err = c.rdb.Close()
		}
	})
	return err
}

// LoadJSON decodes a cached value of type T. Decode failures count as a miss.
func LoadJSON[T any](ctx context.Context, c Cache, key string) (T, bool) {
	var out T
	if c == nil {
		return out, false
	}
	data, ok := c.Get(ctx, key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// StoreJSON marshals v into the cache.
func StoreJSON[T any](ctx context.Context, c Cache, key string, v T) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Set(ctx, key, data)
}
