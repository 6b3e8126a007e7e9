// Package user registers chat participants.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"
)

// Store is the user persistence the service depends on.
type Store interface {
	RegisterUser(ctx context.Context, userID int64) error
}

// Cache remembers users that are already registered.
type Cache interface {
	Known(ctx context.Context, userID int64) (bool, error)
	Remember(ctx context.Context, userID int64) error
}

// Service provides business operations over users.
type Service struct {
	store Store
	cache Cache
	log   *slog.Logger
}

// NewService constructs a new Service instance. cache may be nil.
func NewService(store Store, cache Cache, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, cache: cache, log: log}
}

// Register records the sender of an update. Repeated calls are no-ops. Cache
// failures are logged and fall through to the store.
func (s *Service) Register(ctx context.Context, telegramUser *telebot.User) error {
	if telegramUser == nil {
		return errors.New("telegram user is nil")
	}
	userID := telegramUser.ID

	if s.cache != nil {
		known, err := s.cache.Known(ctx, userID)
		if err != nil {
			s.logError(ctx, "register.cache_get", userID, err)
		}
		if known {
			return nil
		}
	}

	if err := s.store.RegisterUser(ctx, userID); err != nil {
		s.logError(ctx, "register", userID, err)
		return fmt.Errorf("register user: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Remember(ctx, userID); err != nil {
			s.logError(ctx, "register.cache_set", userID, err)
		}
	}

	return nil
}

func (s *Service) logError(ctx context.Context, operation string, telegramID int64, err error) {
	s.log.ErrorContext(ctx, "user service operation failed",
		slog.String("operation", operation),
		slog.Int64("telegram_id", telegramID),
		slog.Any("error", err),
	)
}
