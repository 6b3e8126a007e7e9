package middleware

import (
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashback-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/cashback-bot/internal/errors"
	"github.com/Proton-105/cashback-bot/internal/ratelimit"
)

// RateLimitMiddleware enforces per-user rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
	now     func() time.Time
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
		now:     time.Now,
	}
}

// Handle rejects updates over the per-user limit with a rate limit error.
// Limiter failures let the update through.
func (m *RateLimitMiddleware) Handle(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		if m.limiter == nil || !m.rules.Enabled() {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil {
			return next(c)
		}

		userID := sender.ID
		if m.rules.IsWhitelisted(userID) {
			return next(c)
		}

		ctx := handlers.Context(c)
		limit, window := m.rules.PerUser()
		result, err := m.limiter.Check(ctx, ratelimit.UserKey(userID), limit, window)
		if err != nil {
			m.log.WarnContext(ctx, "rate limiter error", slog.Int64("user_id", userID), slog.Any("error", err))
			return next(c)
		}

		if !result.Allowed {
			m.log.WarnContext(ctx, "rate limit exceeded", slog.Int64("user_id", userID))
			return apperrors.NewRateLimitError(result.RetryAfter(m.now()))
		}

		return next(c)
	}
}
