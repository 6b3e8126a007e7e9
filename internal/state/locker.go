package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	userLockKeyPattern = "user:lock:%d"
	lockTTL            = 5 * time.Second
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker serializes the handling of updates from one user.
type Locker interface {
	// Lock acquires the user's lock or fails with ErrStateLocked. The returned
	// function releases it.
	Lock(ctx context.Context, userID int64) (func(), error)
}

// RedisLocker holds per-user locks in Redis so several bot replicas can share state.
type RedisLocker struct {
	client redis.UniversalClient
	log    *slog.Logger
	ttl    time.Duration
}

// NewRedisLocker creates a RedisLocker with the default lock TTL.
func NewRedisLocker(client redis.UniversalClient, log *slog.Logger) *RedisLocker {
	if log == nil {
		log = slog.Default()
	}
	return &RedisLocker{client: client, log: log, ttl: lockTTL}
}

func (l *RedisLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	key := fmt.Sprintf(userLockKeyPattern, userID)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		l.log.ErrorContext(ctx, "failed to acquire user state lock", slog.Int64("user_id", userID), slog.Any("error", err))
		return nil, err
	}

	if !acquired {
		l.log.WarnContext(ctx, "user state lock already held", slog.Int64("user_id", userID))
		return nil, ErrStateLocked
	}

	return func() {
		// the caller context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.log.ErrorContext(ctx, "failed to release user state lock", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}, nil
}

// MemoryLocker holds per-user locks in process memory.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

// NewMemoryLocker creates an empty MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[int64]struct{})}
}

func (l *MemoryLocker) Lock(_ context.Context, userID int64) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[userID]; ok {
		return nil, ErrStateLocked
	}
	l.held[userID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, userID)
			l.mu.Unlock()
		})
	}, nil
}
