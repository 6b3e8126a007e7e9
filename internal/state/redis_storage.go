package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userStateKeyPattern  = "user:state:%d"
	userStateScanPattern = "user:state:*"
	stateScanBatchCount  = 100
)

// RedisStorage persists conversations in Redis as JSON with a TTL.
type RedisStorage struct {
	client redis.UniversalClient
	log    *slog.Logger
	ttl    time.Duration
}

// NewRedisStorage initializes a Redis-backed Storage implementation.
func NewRedisStorage(client redis.UniversalClient, log *slog.Logger, ttl time.Duration) *RedisStorage {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

// Get returns the stored conversation or ErrStateNotFound when absent.
func (s *RedisStorage) Get(ctx context.Context, userID int64) (*Conversation, error) {
	data, err := s.client.Get(ctx, redisUserStateKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}

		s.log.ErrorContext(ctx, "failed to get state from redis", slog.Int64("user_id", userID), slog.Any("error", err))
		return nil, err
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		s.log.ErrorContext(ctx, "failed to decode user state", slog.Int64("user_id", userID), slog.Any("error", err))
		return nil, err
	}

	return &conv, nil
}

// Set saves the conversation with the configured TTL.
func (s *RedisStorage) Set(ctx context.Context, conv *Conversation) error {
	conv.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(conv)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to encode user state", slog.Int64("user_id", conv.UserID), slog.Any("error", err))
		return err
	}

	if err := s.client.Set(ctx, redisUserStateKey(conv.UserID), data, s.ttl).Err(); err != nil {
		s.log.ErrorContext(ctx, "failed to save state in redis", slog.Int64("user_id", conv.UserID), slog.Any("error", err))
		return err
	}

	return nil
}

// Clear removes the stored conversation of the given user.
func (s *RedisStorage) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, redisUserStateKey(userID)).Err(); err != nil {
		s.log.ErrorContext(ctx, "failed to clear user state", slog.Int64("user_id", userID), slog.Any("error", err))
		return err
	}

	return nil
}

// All retrieves every stored conversation by scanning Redis keys.
func (s *RedisStorage) All(ctx context.Context) ([]*Conversation, error) {
	var (
		cursor uint64
		result []*Conversation
	)

	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, userStateScanPattern, stateScanBatchCount).Result()
		if err != nil {
			s.log.ErrorContext(ctx, "failed to scan user states", slog.Any("error", err))
			return nil, err
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}

				s.log.ErrorContext(ctx, "failed to fetch user state", slog.String("key", key), slog.Any("error", err))
				return nil, err
			}

			var conv Conversation
			if err := json.Unmarshal(data, &conv); err != nil {
				s.log.WarnContext(ctx, "failed to decode user state", slog.String("key", key), slog.Any("error", err))
				continue
			}

			result = append(result, &conv)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return result, nil
}

func redisUserStateKey(userID int64) string {
	return fmt.Sprintf(userStateKeyPattern, userID)
}
