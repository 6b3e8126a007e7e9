package state

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner drops conversations that have been idle for longer than the TTL.
type Cleaner struct {
	storage  Storage
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(storage Storage, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		storage:  storage,
		log:      log,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
	}
}

// Run starts the cleanup loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.storage == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("state cleaner stopped", slog.Any("reason", ctx.Err()))
			return
		case <-ticker.C:
			c.Cleanup(ctx)
		}
	}
}

// Cleanup performs a single pass and returns how many conversations were dropped.
func (c *Cleaner) Cleanup(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	convs, err := c.storage.All(ctx)
	if err != nil {
		c.log.Error("state cleaner failed to list states", slog.Any("error", err))
		return 0
	}

	var cleared int
	for _, conv := range convs {
		if c.now().Sub(conv.UpdatedAt) <= c.ttl {
			continue
		}

		if err := c.storage.Clear(ctx, conv.UserID); err != nil {
			c.log.Error("state cleaner failed to clear state", slog.Int64("user_id", conv.UserID), slog.Any("error", err))
			continue
		}

		transitionRecorder(string(conv.Step), string(StepIdle))
		c.log.Info("state session cleared", slog.Int64("user_id", conv.UserID), slog.String("step", string(conv.Step)))
		cleared++
	}

	return cleared
}
