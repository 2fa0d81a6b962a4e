package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"todo-project/pkg/logger"
)

const todosCacheKey = "todos:all"

// ListCache holds the serialized todos list in Redis so repeated reads skip
// the database. A nil ListCache is valid and always misses.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a list cache on the given Redis URL, or nil when the URL is
// empty or unusable. The cache is an optimization; the store runs without it.
func New(ctx context.Context, redisURL string, ttl time.Duration) *ListCache {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Error(ctx, "Invalid REDIS_URL", "error", err, "url", redisURL)
		return nil
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn(ctx, "Redis ping failed, list cache disabled", "error", err)
		return nil
	}
	logger.Info(ctx, "List cache initialized", "ttl", ttl)
	return &ListCache{client: client, ttl: ttl}
}

// GetRaw reads the cached list bytes. Returns (nil, false) on miss or error.
func (c *ListCache) GetRaw(ctx context.Context) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	b, err := c.client.Get(ctx, todosCacheKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Debug(ctx, "Redis get todos failed", "error", err)
		return nil, false
	}
	return b, true
}

// SetRawAsync writes the serialized list in the background.
func (c *ListCache) SetRawAsync(b []byte) {
	if c == nil {
		return
	}
	go func() {
		ctx := context.Background()
		if err := c.client.Set(ctx, todosCacheKey, b, c.ttl).Err(); err != nil {
			logger.Debug(ctx, "Redis set todos failed", "error", err)
		}
	}()
}

// Invalidate drops the cached list so the next read goes to the database.
// Called after every create/complete.
func (c *ListCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, todosCacheKey).Err(); err != nil {
		logger.Debug(ctx, "Redis invalidate todos failed", "error", err)
	}
}
