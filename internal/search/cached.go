package search

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/nkarpov/claimsift/internal/cache"
	"github.com/nkarpov/claimsift/internal/model"
)

// CacheStore is the subset of the cache interface the adapter needs.
type CacheStore interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
}

// Cached wraps a provider with a query-keyed response cache. Repeated
// queries within the TTL (common when two claims frame the same query)
// cost no provider calls.
type Cached struct {
	inner Provider
	store CacheStore
	ttl   time.Duration
}

// NewCached wraps a provider with the given store and TTL.
func NewCached(inner Provider, store CacheStore, ttl time.Duration) *Cached {
	return &Cached{inner: inner, store: store, ttl: ttl}
}

// Name returns the wrapped provider's name.
func (c *Cached) Name() string {
	return c.inner.Name()
}

// Search serves from cache when possible. Only successful lookups are
// cached; failures stay failures so the caller's fallback logic runs.
func (c *Cached) Search(ctx context.Context, query string, maxResults int) ([]model.SearchHit, error) {
	key := cache.Key("search", c.inner.Name(), strconv.Itoa(maxResults), strings.ToLower(strings.TrimSpace(query)))

	if data, found := c.store.Get(key); found {
		var hits []model.SearchHit
		if err := json.Unmarshal(data, &hits); err == nil {
			return hits, nil
		}
	}

	hits, err := c.inner.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(hits); err == nil {
		_ = c.store.Set(key, data, c.ttl)
	}
	return hits, nil
}
