package cache

import (
	"github.com/creatorly/churnalytics/internal/config"
	"github.com/creatorly/churnalytics/internal/logger"
	redisClient "github.com/creatorly/churnalytics/internal/redis"
)

// CacheType represents the type of cache to use
type CacheType string

const (
	// CacheTypeInMemory represents an in-memory cache
	CacheTypeInMemory CacheType = "inmemory"

	// CacheTypeRedis represents a Redis-backed cache
	CacheTypeRedis CacheType = "redis"
)

// Initialize builds the configured cache. The Redis client is only required
// when cache.type is "redis"; passing nil falls back to in-memory.
func Initialize(cfg *config.Configuration, client *redisClient.Client, log *logger.Logger) Cache {
	log.Infow("Initializing cache system", "type", cfg.Cache.Type)

	switch CacheType(cfg.Cache.Type) {
	case CacheTypeRedis:
		if client != nil {
			return NewRedisCache(client, log, cfg)
		}
		log.Warnw("Redis cache requested but no Redis client available, using in-memory")
		return NewInMemoryCache(log)
	case CacheTypeInMemory:
		fallthrough
	default:
		return NewInMemoryCache(log)
	}
}
