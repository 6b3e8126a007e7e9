package errors

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/cashback-bot/internal/i18n"
	"github.com/Proton-105/cashback-bot/pkg/logger"
)

// Handler logs errors, reports serious ones to Sentry and resolves the
// message shown to the user.
type Handler struct {
	log           *slog.Logger
	t             i18n.Translator
	sentryEnabled bool
}

func NewHandler(log *slog.Logger, t i18n.Translator, sentryEnabled bool) *Handler {
	return &Handler{
		log:           log,
		t:             t,
		sentryEnabled: sentryEnabled,
	}
}

// Handle returns the user message for err and whether retrying may help.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}

	if ctx == nil {
		ctx = context.Background()
	}

	log := h.log
	if log == nil {
		log = slog.Default()
	}

	if appErr, ok := As(err); ok {
		attrs := []slog.Attr{
			slog.String("code", appErr.Code),
			slog.String("message", appErr.Message),
			slog.String("severity", string(appErr.Severity)),
			slog.Bool("retryable", appErr.Retryable),
		}
		if cause := appErr.Unwrap(); cause != nil {
			attrs = append(attrs, slog.String("cause", cause.Error()))
		}

		if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
			attrs = append(attrs, slog.String("correlation_id", correlationID))
		}

		log.LogAttrs(ctx, levelFor(appErr.Severity), "application error", attrs...)

		if h.sentryEnabled && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
			h.sendToSentry(err)
		}

		key := appErr.UserKey
		if key == "" {
			key = KeyGeneric
		}

		return h.translate(key), appErr.Retryable
	}

	attrs := []slog.Attr{
		slog.String("message", err.Error()),
		slog.String("severity", string(SeverityHigh)),
		slog.Bool("retryable", false),
	}

	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	log.LogAttrs(ctx, slog.LevelError, "unknown error", attrs...)

	if h.sentryEnabled {
		h.sendToSentry(err)
	}

	return h.translate(KeyGeneric), false
}

func (h *Handler) translate(key string) string {
	if h.t == nil {
		return key
	}
	return h.t.T(key)
}

func (h *Handler) sendToSentry(err error) {
	if err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		if appErr, ok := As(err); ok {
			if appErr.Code != "" {
				scope.SetTag("code", appErr.Code)
			}

			if appErr.Severity != "" {
				scope.SetTag("severity", string(appErr.Severity))
			}
		}

		sentry.CaptureException(err)
	})
}

func levelFor(s Severity) slog.Level {
	switch s {
	case SeverityLow:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
