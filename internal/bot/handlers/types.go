package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

const contextKey = "request_ctx"

// WithContext attaches a request scoped context to the update.
func WithContext(c telebot.Context, ctx context.Context) {
	c.Set(contextKey, ctx)
}

// Context returns the request scoped context of the update, or a background
// context when none was attached.
func Context(c telebot.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if ctx, ok := c.Get(contextKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}
