package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashback-bot/internal/bot/handlers"
	"github.com/Proton-105/cashback-bot/internal/idempotency"
)

// Idempotency ensures handlers execute at most once per Telegram update key.
func Idempotency(manager idempotency.Manager, ttl time.Duration, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := UpdateKey(c)
			if key == "" {
				return next(c)
			}

			ctx := handlers.Context(c)
			result, err := manager.Execute(ctx, key, ttl, func(execCtx context.Context) error {
				return next(c)
			})
			if err != nil {
				if errors.Is(err, idempotency.ErrRequestInProgress) {
					log.DebugContext(ctx, "update already in progress", slog.String("key", key))
					return nil
				}
				return err
			}

			if result.Duplicate {
				log.InfoContext(ctx, "duplicate update ignored", slog.String("key", key))
			}
			return nil
		}
	}
}

// UpdateKey identifies the update behind c: the callback query id for button
// presses, chat and message id for messages.
func UpdateKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	if cb := c.Callback(); cb != nil {
		if cb.ID != "" {
			return idempotency.GenerateKey("cb", cb.ID)
		}

		if cb.Message != nil {
			chatID := int64(0)
			if cb.Message.Chat != nil {
				chatID = cb.Message.Chat.ID
			}
			return idempotency.GenerateKey("cb-msg", chatID, cb.Message.ID, cb.Data)
		}
	}

	if msg := c.Message(); msg != nil && msg.ID != 0 {
		chatID := int64(0)
		if msg.Chat != nil {
			chatID = msg.Chat.ID
		}
		return idempotency.GenerateKey("msg", chatID, strconv.Itoa(msg.ID))
	}

	return ""
}
