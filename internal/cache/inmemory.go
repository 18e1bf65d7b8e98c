package cache

import (
	"context"
	"time"

	"github.com/flexprice/payhook/internal/config"
	"github.com/flexprice/payhook/internal/logger"
	goCache "github.com/patrickmn/go-cache"
)

// DefaultExpiration is the default expiration time for cache entries
const DefaultExpiration = 30 * time.Minute

// DefaultCleanupInterval is how often expired items are removed from the cache
const DefaultCleanupInterval = 1 * time.Hour

// InMemoryCache implements the Cache interface using github.com/patrickmn/go-cache
type InMemoryCache struct {
	cache *goCache.Cache
}

// NewInMemoryCache creates a new InMemoryCache instance. Each call returns an
// independent cache, callers share one by injecting it.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		cache: goCache.New(DefaultExpiration, DefaultCleanupInterval),
	}
}

// Initialize provides the cache to the application
func Initialize(cfg *config.Configuration, log *logger.Logger) Cache {
	log.Infow("initializing in-memory cache",
		"dedupe_ttl", cfg.Webhook.Inbound.DedupeTTL,
	)
	return NewInMemoryCache()
}

// Get retrieves a value from the cache
func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	return c.cache.Get(key)
}

// Add sets the value only if the key is absent, atomically
func (c *InMemoryCache) Add(_ context.Context, key string, value interface{}, expiration time.Duration) bool {
	return c.cache.Add(key, value, expiration) == nil
}

// Delete removes a key from the cache
func (c *InMemoryCache) Delete(_ context.Context, key string) {
	c.cache.Delete(key)
}
