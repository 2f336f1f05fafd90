package cache

import (
	"context"
	"time"
)

// Cache is the key/value contract the analytics layer depends on. Values are
// JSON-serializable structures; a Set for an existing key overwrites it
// wholesale. Implementations never return partial values.
type Cache interface {
	// Get retrieves a value from the cache.
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set adds a value to the cache with the specified expiration.
	// An expiration of ExpiryNever stores the value without a TTL.
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)

	// Delete removes a key from the cache.
	Delete(ctx context.Context, key string)
}
