// Package redis builds the shared Redis connection used by the state store,
// the rate limiter and the idempotency store.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Proton-105/cashback-bot/pkg/config"
)

// Client wraps the go-redis client.
type Client struct {
	*goredis.Client
}

// New creates an instrumented Redis client configured with cfg and verifies
// the connection with Ping.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	opts := &goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	rdb := goredis.NewClient(opts)
	rdb.AddHook(MetricsHook{})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Client{rdb}, nil
}

// Universal exposes the client through the interface the stores accept.
func (c *Client) Universal() goredis.UniversalClient {
	return c.Client
}
