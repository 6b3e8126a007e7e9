// Package usercache remembers which Telegram users are already registered so
// the per-update registration does not hit the database every time.
package usercache

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "user:registered:"

// Cache is a Redis-backed set of registered user ids with a TTL per entry.
// A nil Cache knows nobody and remembers nothing.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCache constructs a cache backed by the provided Redis client.
func NewCache(client redis.UniversalClient, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{client: client, ttl: ttl}
}

// Known reports whether the user was remembered and has not expired.
func (c *Cache) Known(ctx context.Context, userID int64) (bool, error) {
	if c == nil {
		return false, nil
	}

	err := c.client.Get(ctx, cacheKey(userID)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("get cached user: %w", err)
	}
}

// Remember marks the user as registered.
func (c *Cache) Remember(ctx context.Context, userID int64) error {
	if c == nil {
		return nil
	}

	if err := c.client.Set(ctx, cacheKey(userID), 1, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached user: %w", err)
	}
	return nil
}

// Forget removes the user from the cache.
func (c *Cache) Forget(ctx context.Context, userID int64) error {
	if c == nil {
		return nil
	}

	if err := c.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete cached user: %w", err)
	}
	return nil
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, userID)
}
