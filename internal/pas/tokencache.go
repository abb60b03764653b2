package pas

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache shares a PAS session token between processes.
type TokenCache interface {
	// Get returns "" with a nil error on a cache miss.
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string, ttl time.Duration) error
	Delete(ctx context.Context) error
}

const defaultTokenKey = "pasbridge:pas:session"

// RedisTokenCache stores the session token under a single Redis key so the
// API and worker processes reuse one PAS login.
type RedisTokenCache struct {
	client *redis.Client
	key    string
}

// NewRedisTokenCache creates a token cache. An empty key uses the default.
func NewRedisTokenCache(client *redis.Client, key string) *RedisTokenCache {
	if key == "" {
		key = defaultTokenKey
	}
	return &RedisTokenCache{client: client, key: key}
}

func (c *RedisTokenCache) Get(ctx context.Context) (string, error) {
	token, err := c.client.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return token, err
}

func (c *RedisTokenCache) Set(ctx context.Context, token string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key, token, ttl).Err()
}

func (c *RedisTokenCache) Delete(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
