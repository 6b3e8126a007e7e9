// Package idempotency suppresses repeated processing of the same chat update.
package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrRequestInProgress = errors.New("request with this key is already in progress")

const lockTTL = 5 * time.Minute

type Operation func(ctx context.Context) error

type Result struct {
	// Duplicate is set when the key already completed and fn was skipped.
	Duplicate bool
}

type Manager interface {
	Execute(
		ctx context.Context,
		key string,
		ttl time.Duration,
		fn Operation,
	) (*Result, error)
}

type manager struct {
	store Store
	log   *slog.Logger
}

func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store: store,
		log:   log,
	}
}

// Execute runs fn once per key. A failed fn releases the key so the update
// can be processed again.
func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	if fn == nil {
		return nil, errors.New("operation fn cannot be nil")
	}

	locked, err := m.store.Lock(ctx, key, lockTTL)
	if err != nil {
		return nil, err
	}

	if !locked {
		record, err := m.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if record != nil && record.Status == StatusCompleted {
			m.log.DebugContext(ctx, "duplicate update skipped", slog.String("key", key))
			return &Result{Duplicate: true}, nil
		}
		return nil, ErrRequestInProgress
	}

	if err := fn(ctx); err != nil {
		if releaseErr := m.store.ReleaseLock(ctx, key); releaseErr != nil {
			m.log.WarnContext(ctx, "failed to release idempotency key", slog.String("key", key), slog.Any("error", releaseErr))
		}
		return nil, err
	}

	if err := m.store.Set(ctx, key, &Record{Status: StatusCompleted, CompletedAt: time.Now().UTC()}, ttl); err != nil {
		return nil, err
	}

	return &Result{}, nil
}
