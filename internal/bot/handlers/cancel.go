package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashback-bot/internal/bot/keyboard"
	"github.com/Proton-105/cashback-bot/internal/conversation"
	"github.com/Proton-105/cashback-bot/internal/i18n"
)

// NewCancelHandler leaves any active wizard and returns the user to the main menu.
func NewCancelHandler(engine Engine, t i18n.Translator) Handler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		resp, err := engine.Handle(Context(c), sender.ID, conversation.Exit())
		if err != nil {
			return err
		}

		return c.Send(resp.Text, keyboard.MainMenu(t))
	}
}
