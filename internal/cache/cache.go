// Package cache is a read-through response cache over the transient store
// with explicit and pattern-based invalidation.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aman-churiwal/blog-api/internal/metrics"
	"github.com/aman-churiwal/blog-api/internal/storage"
)

// Store is the subset of the transient store the cache needs.
// Get must return an error satisfying storage.IsMiss for absent keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
	DeleteMatching(ctx context.Context, pattern string) (int64, error)
}

type Cache struct {
	store      Store
	defaultTTL time.Duration
	metrics    *metrics.Metrics
}

func New(store Store, defaultTTL time.Duration, m *metrics.Metrics) *Cache {
	return &Cache{store: store, defaultTTL: defaultTTL, metrics: m}
}

// Get returns the entry under key. A miss is (Entry{}, false, nil).
func (c *Cache) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := c.store.Get(ctx, key)
	if storage.IsMiss(err) {
		c.metrics.CacheEvent(metrics.CacheMiss)
		return Entry{}, false, nil
	}
	if err != nil {
		c.metrics.CacheEvent(metrics.CacheError)
		return Entry{}, false, err
	}

	entry, err := decodeEntry(raw)
	if err != nil {
		// Unreadable entries are treated as misses and overwritten.
		c.metrics.CacheEvent(metrics.CacheMiss)
		return Entry{}, false, nil
	}

	c.metrics.CacheEvent(metrics.CacheHit)
	return entry, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	raw, err := encodeEntry(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := c.store.Set(ctx, key, raw, ttl); err != nil {
		c.metrics.CacheEvent(metrics.CacheError)
		return err
	}

	c.metrics.CacheEvent(metrics.CacheStore)
	return nil
}

// Invalidate deletes keys and every key matching patterns. Absent keys are
// not an error. Every deletion is attempted even if an earlier one fails.
func (c *Cache) Invalidate(ctx context.Context, keys []string, patterns []string) (int64, error) {
	var (
		total int64
		errs  []error
	)

	if len(keys) > 0 {
		n, err := c.store.Del(ctx, keys...)
		if err != nil {
			errs = append(errs, err)
		}
		total += n
	}

	for _, p := range patterns {
		n, err := c.store.DeleteMatching(ctx, p)
		if err != nil {
			errs = append(errs, err)
		}
		total += n
	}

	c.metrics.CacheEvent(metrics.CacheInvalidate)
	c.metrics.CacheKeysInvalidated(total)

	if len(errs) > 0 {
		c.metrics.CacheEvent(metrics.CacheError)
	}
	return total, errors.Join(errs...)
}
