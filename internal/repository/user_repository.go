package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/cashback-bot/internal/domain"
)

// RegisterUser creates the user row if it does not exist yet.
func (s *Store) RegisterUser(ctx context.Context, userID int64) error {
	const query = `
		INSERT INTO users (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		s.logError(ctx, "failed to register user", err, slog.Int64("user_id", userID))
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindUser retrieves a user by Telegram id.
func (s *Store) FindUser(ctx context.Context, userID int64) (*domain.User, error) {
	const query = `
		SELECT user_id, friend_id
		FROM users
		WHERE user_id = $1
	`

	var (
		user     domain.User
		friendID sql.NullInt64
	)
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&user.ID, &friendID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.logError(ctx, "failed to fetch user", err, slog.Int64("user_id", userID))
		return nil, fmt.Errorf("select user: %w", err)
	}

	if friendID.Valid {
		user.FriendID = &friendID.Int64
	}

	return &user, nil
}

// SetFriend links friendID to the user, replacing any previous link.
func (s *Store) SetFriend(ctx context.Context, userID, friendID int64) error {
	const query = `
		INSERT INTO users (user_id, friend_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET friend_id = excluded.friend_id
	`

	if _, err := s.db.ExecContext(ctx, query, userID, friendID); err != nil {
		s.logError(ctx, "failed to set friend", err, slog.Int64("user_id", userID), slog.Int64("friend_id", friendID))
		return fmt.Errorf("upsert friend: %w", err)
	}

	return nil
}
