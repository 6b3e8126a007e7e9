package idempotency

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cleaner removes idempotency keys that lost their expiry or outlived the
// configured record TTL, and sweeps a MemoryStore when one is used.
type Cleaner struct {
	client   redis.UniversalClient
	memory   *MemoryStore
	log      *slog.Logger
	interval time.Duration
	maxTTL   time.Duration
}

func NewCleaner(client redis.UniversalClient, memory *MemoryStore, log *slog.Logger, interval, maxTTL time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		client:   client,
		memory:   memory,
		log:      log,
		interval: interval,
		maxTTL:   maxTTL,
	}
}

func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || (c.client == nil && c.memory == nil) || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup(ctx)
		}
	}
}

// Cleanup performs one sweep and returns the number of removed keys.
func (c *Cleaner) Cleanup(ctx context.Context) int {
	removed := 0
	if c.memory != nil {
		removed += c.memory.Cleanup()
	}
	if c.client == nil {
		return removed
	}

	var (
		cursor uint64
		err    error
	)

	for {
		var keys []string
		keys, cursor, err = c.client.Scan(ctx, cursor, "idempotency:*", 100).Result()
		if err != nil {
			c.log.ErrorContext(ctx, "idempotency cleaner scan failed", slog.Any("error", err))
			return removed
		}

		for _, key := range keys {
			ttl, err := c.client.TTL(ctx, key).Result()
			if err != nil {
				c.log.WarnContext(ctx, "failed to get key ttl", slog.String("key", key), slog.Any("error", err))
				continue
			}

			if ttl < 0 || ttl > c.maxTTL {
				if err := c.client.Del(ctx, key).Err(); err != nil {
					c.log.WarnContext(ctx, "failed to delete stale idempotency key", slog.String("key", key), slog.Any("error", err))
					continue
				}
				removed++
			}
		}

		if cursor == 0 {
			break
		}
	}

	return removed
}
