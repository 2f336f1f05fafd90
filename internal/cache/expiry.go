package cache

import "time"

const (
	ExpiryDefaultInMemory = 30 * time.Minute
	ExpiryDefaultRedis    = 5 * time.Minute

	// ExpiryNever stores a value without a TTL. Used for historically stable
	// analytics windows, whose keys encode the exact window boundaries and so
	// never need invalidation.
	ExpiryNever time.Duration = 0
)
