package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cleaner periodically drops expired rate-limit samples: Redis sorted sets
// when a client is set, idle buckets of the memory limiter otherwise.
type Cleaner struct {
	redisClient redis.UniversalClient
	memory      *MemoryLimiter
	log         *slog.Logger
	interval    time.Duration
	window      time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(client redis.UniversalClient, memory *MemoryLimiter, log *slog.Logger, interval, window time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		redisClient: client,
		memory:      memory,
		log:         log,
		interval:    interval,
		window:      window,
	}
}

// Run starts the cleaner loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if (c.redisClient == nil && c.memory == nil) || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("rate limit cleaner stopped", slog.String("reason", ctx.Err().Error()))
			return
		case <-ticker.C:
			c.Cleanup(ctx)
		}
	}
}

// Cleanup performs one sweep and returns the number of removed keys.
func (c *Cleaner) Cleanup(ctx context.Context) int {
	cleaned := 0
	if c.memory != nil {
		cleaned += c.memory.Cleanup(c.window)
	}
	if c.redisClient == nil || ctx.Err() != nil {
		return cleaned
	}

	const scanCount = 100

	cutoff := time.Now().Add(-c.window).UnixMilli()
	var cursor uint64

	for {
		keys, nextCursor, err := c.redisClient.Scan(ctx, cursor, redisKeyPrefix+"*", scanCount).Result()
		if err != nil {
			c.log.ErrorContext(ctx, "rate limit scan failed", slog.Any("error", err))
			return cleaned
		}

		for _, key := range keys {
			pipe := c.redisClient.TxPipeline()
			pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%d", cutoff))
			cardCmd := pipe.ZCard(ctx, key)
			if _, err := pipe.Exec(ctx); err != nil {
				c.log.WarnContext(ctx, "cleanup pipeline failed", slog.String("key", key), slog.Any("error", err))
				continue
			}

			if cardCmd.Val() == 0 {
				if err := c.redisClient.Del(ctx, key).Err(); err != nil {
					c.log.WarnContext(ctx, "failed to delete empty rate limit key", slog.String("key", key), slog.Any("error", err))
					continue
				}
				cleaned++
			}
		}

		if nextCursor == 0 {
			break
		}
		cursor = nextCursor
	}

	if cleaned > 0 {
		c.log.InfoContext(ctx, "rate limit keys cleaned", slog.Int("keys_removed", cleaned))
	}
	return cleaned
}
