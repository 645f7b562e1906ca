package correction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"burnish/internal/logging"
)

// CacheConfig carries the redis connection settings for the reply cache.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Cache memoizes raw model replies keyed by request content, so reprocessing
// an unchanged session skips the provider call. Every redis failure is a
// cache miss, never an error: the cache is an optimization, not a
// dependency. A nil *Cache is valid and always misses.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

const cacheKeyPrefix = "burnish:correction:"

// NewCache connects the reply cache. The connection is lazy; reachability is
// checked by Ping during preflight.
func NewCache(cfg CacheConfig, logger *slog.Logger) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logging.NewComponentLogger(logger, "correction_cache"),
	}
}

// CacheKey derives the cache key for one correction request. The model is
// part of the key: two models may correct the same transcript differently.
func CacheKey(model, userPrompt string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + userPrompt))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached reply for key, or ok=false on a miss or any redis
// failure.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache get failed", logging.Args(logging.Error(err))...)
		}
		return "", false
	}
	return value, true
}

// Put stores a reply under key. Failures are logged and swallowed.
func (c *Cache) Put(ctx context.Context, key, reply string) {
	if c == nil || c.client == nil || reply == "" {
		return
	}
	if err := c.client.Set(ctx, key, reply, c.ttl).Err(); err != nil {
		c.logger.Debug("cache put failed", logging.Args(logging.Error(err))...)
	}
}

// Ping verifies the redis connection, for preflight reporting.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the redis connection.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
