package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashback-bot/internal/bot/keyboard"
	"github.com/Proton-105/cashback-bot/internal/i18n"
)

// NewStartHandler greets the user and shows the main menu. Registration is
// done by the middleware chain for every update.
func NewStartHandler(t i18n.Translator) Handler {
	return func(c telebot.Context) error {
		return c.Send(t.T("common.welcome"), keyboard.MainMenu(t))
	}
}

// NewHelpHandler lists the available commands.
func NewHelpHandler(t i18n.Translator) Handler {
	return func(c telebot.Context) error {
		return c.Send(t.T("common.help"), keyboard.MainMenu(t))
	}
}
