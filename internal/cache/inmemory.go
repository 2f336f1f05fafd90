package cache

import (
	"context"
	"time"

	"github.com/creatorly/churnalytics/internal/logger"
	gocache "github.com/patrickmn/go-cache"
)

// InMemoryCache implements the Cache interface with an in-process store.
// Used in development and tests; values are stored as-is, not serialized.
type InMemoryCache struct {
	store *gocache.Cache
	log   *logger.Logger
}

// NewInMemoryCache creates a new in-memory cache
func NewInMemoryCache(log *logger.Logger) *InMemoryCache {
	return &InMemoryCache{
		store: gocache.New(ExpiryDefaultInMemory, 10*time.Minute),
		log:   log,
	}
}

// Get retrieves a value from the cache
func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	return c.store.Get(key)
}

// Set adds a value to the cache. ExpiryNever stores the value without a TTL.
func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) {
	if expiration == ExpiryNever {
		c.store.Set(key, value, gocache.NoExpiration)
		return
	}
	c.store.Set(key, value, expiration)
}

// Delete removes a key from the cache
func (c *InMemoryCache) Delete(_ context.Context, key string) {
	c.store.Delete(key)
}
