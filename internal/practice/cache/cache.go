// Package cache provides a best-effort TTL cache for aggregated views.
//
// A failing backend never fails a caller: reads degrade to misses and writes
// are dropped, both with a warning log.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jgirmay/vocab-practice/internal/common/metrics"
)

// Entry represents a cached value with TTL
type Entry struct {
	Value     []byte
	StoredAt  time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the entry is no longer valid at now.
func (e *Entry) ExpiredAt(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Backend is the storage under the cache. Load returns (nil, nil) when the key
// is absent.
type Backend interface {
	Load(ctx context.Context, key string) (*Entry, error)
	Store(ctx context.Context, key string, entry *Entry) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
}

// AggregationCache stores JSON-encoded views with a per-call TTL.
type AggregationCache struct {
	backend Backend
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
	group   singleflight.Group

	computeTimeout time.Duration
}

type Option func(*AggregationCache)

// WithClock replaces time.Now, mainly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(c *AggregationCache) { c.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *AggregationCache) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *AggregationCache) { c.metrics = m }
}

// WithComputeTimeout bounds a shared computation started by Load. Zero means
// no bound beyond the compute func's own.
func WithComputeTimeout(d time.Duration) Option {
	return func(c *AggregationCache) { c.computeTimeout = d }
}

// New creates a cache on top of backend
func New(backend Backend, opts ...Option) *AggregationCache {
	c := &AggregationCache{
		backend: backend,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get decodes the value for key into dst. It returns false when the key is
// absent, expired, or unreadable. Expired entries are removed here.
func (c *AggregationCache) Get(ctx context.Context, key string, dst any) bool {
	entry, err := c.backend.Load(ctx, key)
	if err != nil {
		c.metrics.ObserveCache(metrics.CacheError)
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if entry == nil {
		c.metrics.ObserveCache(metrics.CacheMiss)
		return false
	}

	if entry.ExpiredAt(c.now()) {
		c.metrics.ObserveCache(metrics.CacheMiss)
		if err := c.backend.Delete(ctx, key); err != nil {
			c.logger.Warn("cache evict failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(entry.Value, dst); err != nil {
		c.metrics.ObserveCache(metrics.CacheError)
		c.logger.Warn("cache entry undecodable", zap.String("key", key), zap.Error(err))
		return false
	}

	c.metrics.ObserveCache(metrics.CacheHit)
	return true
}

// Set stores value under key until now+ttl. A non-positive ttl is ignored.
func (c *AggregationCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache entry unencodable", zap.String("key", key), zap.Error(err))
		return
	}

	now := c.now()
	entry := &Entry{Value: data, StoredAt: now, ExpiresAt: now.Add(ttl)}
	if err := c.backend.Store(ctx, key, entry); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops one key
func (c *AggregationCache) Invalidate(ctx context.Context, key string) {
	if err := c.backend.Delete(ctx, key); err != nil {
		c.logger.Warn("cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidatePrefix drops every key starting with prefix
func (c *AggregationCache) InvalidatePrefix(ctx context.Context, prefix string) {
	if err := c.backend.DeletePrefix(ctx, prefix); err != nil {
		c.logger.Warn("cache invalidate failed", zap.String("prefix", prefix), zap.Error(err))
	}
}

// InvalidateAll drops every key
func (c *AggregationCache) InvalidateAll(ctx context.Context) {
	if err := c.backend.Clear(ctx); err != nil {
		c.logger.Warn("cache clear failed", zap.Error(err))
	}
}

// Load returns the cached value for key, or computes, stores and returns it.
// forceRefresh drops the cached entry first. Concurrent loads of one key share
// a single computation. Errors from compute are returned and nothing is cached.
//
// The shared computation runs on a context detached from the caller's
// cancellation, so one caller going away does not fail the others waiting on
// the same key. A caller whose own ctx ends stops waiting and gets ctx.Err().
func Load[T any](ctx context.Context, c *AggregationCache, key string, ttl time.Duration, forceRefresh bool, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if forceRefresh {
		c.Invalidate(ctx, key)
	} else {
		var cached T
		if c.Get(ctx, key, &cached) {
			return cached, nil
		}
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		computeCtx := detached
		if c.computeTimeout > 0 {
			var cancel context.CancelFunc
			computeCtx, cancel = context.WithTimeout(detached, c.computeTimeout)
			defer cancel()
		}

		value, err := compute(computeCtx)
		if err != nil {
			return nil, err
		}
		c.Set(detached, key, value, ttl)
		return value, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Ping reads a key that is never written, surfacing backend errors that Get
// would swallow.
func (c *AggregationCache) Ping(ctx context.Context) error {
	_, err := c.backend.Load(ctx, "health:probe")
	return err
}
