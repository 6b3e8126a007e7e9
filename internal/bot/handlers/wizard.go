package handlers

import (
	"context"
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashback-bot/internal/bot/keyboard"
	"github.com/Proton-105/cashback-bot/internal/conversation"
	"github.com/Proton-105/cashback-bot/internal/i18n"
)

// Engine applies wizard actions.
type Engine interface {
	Handle(ctx context.Context, userID int64, a conversation.Action) (conversation.Response, error)
}

// NewActionHandler runs a fixed action, such as starting a wizard from a
// command or a menu button.
func NewActionHandler(engine Engine, t i18n.Translator, a conversation.Action) Handler {
	return func(c telebot.Context) error {
		return apply(c, engine, t, a)
	}
}

// NewCallbackHandler decodes wizard buttons. Unknown callback data is
// acknowledged without effect.
func NewCallbackHandler(engine Engine, t i18n.Translator, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		a, err := keyboard.DecodeAction(c.Callback().Data)
		if err != nil {
			if errors.Is(err, keyboard.ErrUnknownCallback) {
				log.WarnContext(Context(c), "unknown callback data", slog.String("data", c.Callback().Data))
				return c.Respond()
			}
			return err
		}

		return apply(c, engine, t, a)
	}
}

// NewTextHandler passes free text to the active wizard.
func NewTextHandler(engine Engine, t i18n.Translator) Handler {
	return func(c telebot.Context) error {
		return apply(c, engine, t, conversation.Text(c.Text()))
	}
}

func apply(c telebot.Context, engine Engine, t i18n.Translator, a conversation.Action) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	resp, err := engine.Handle(Context(c), sender.ID, a)
	if err != nil {
		return err
	}

	return Render(c, t, resp)
}
