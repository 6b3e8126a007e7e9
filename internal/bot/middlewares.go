package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashback-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/cashback-bot/internal/errors"
	"github.com/Proton-105/cashback-bot/internal/middleware"
	"github.com/Proton-105/cashback-bot/pkg/logger"
	"github.com/Proton-105/cashback-bot/pkg/metrics"
)

// UserRegistrar records the sender of every update.
type UserRegistrar interface {
	Register(ctx context.Context, u *telebot.User) error
}

// RecoveryMiddleware catches panics, reports them via the centralized handler, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *apperrors.Handler) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					ctx := handlers.Context(c)
					log.ErrorContext(ctx, "panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
					metrics.RecordError("panic", string(apperrors.SeverityCritical))

					userMsg := "⚠️"
					if errHandler != nil {
						if msg, _ := errHandler.Handle(ctx, fmt.Errorf("panic recovered: %v", r)); msg != "" {
							userMsg = msg
						}
					}

					if sendErr := c.Send(userMsg); sendErr != nil {
						log.ErrorContext(ctx, "failed to notify user about panic", slog.Any("error", sendErr))
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// ContextMiddleware attaches a request context with a correlation id and the
// handler deadline to the update.
func ContextMiddleware(timeout time.Duration) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			ctx := logger.WithCorrelationID(context.Background(), "")
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			handlers.WithContext(c, ctx)
			return next(c)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for handler failures.
func ErrorHandlingMiddleware(errHandler *apperrors.Handler) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			errType, severity := "unknown", string(apperrors.SeverityHigh)
			if appErr, ok := apperrors.As(err); ok {
				errType, severity = appErr.Code, string(appErr.Severity)
			}
			metrics.RecordError(errType, severity)

			userMsg, _ := errHandler.Handle(handlers.Context(c), err)

			if c.Callback() != nil {
				return c.Respond(&telebot.CallbackResponse{Text: userMsg, ShowAlert: true})
			}
			return c.Send(userMsg)
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()
			ctx := handlers.Context(c)

			userID := int64(0)
			if c.Sender() != nil {
				userID = c.Sender().ID
			}
			command := middleware.CommandName(c)

			log.DebugContext(ctx, "handling update", slog.Int64("user_id", userID), slog.String("command", command))
			err := next(c)
			log.InfoContext(ctx, "handled update",
				slog.Int64("user_id", userID),
				slog.String("command", command),
				slog.Duration("duration", time.Since(start)),
				slog.Bool("failed", err != nil),
			)

			return err
		}
	}
}

// RegisterMiddleware ensures that each incoming update is associated with a user record.
func RegisterMiddleware(users UserRegistrar) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if users == nil || c.Sender() == nil {
				return next(c)
			}

			if err := users.Register(handlers.Context(c), c.Sender()); err != nil {
				return apperrors.NewDatabaseError("register user", err)
			}

			return next(c)
		}
	}
}
