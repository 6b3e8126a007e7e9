package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashback-bot/internal/bot/keyboard"
	"github.com/Proton-105/cashback-bot/internal/conversation"
	"github.com/Proton-105/cashback-bot/internal/i18n"
)

// Render shows a wizard response. Button presses edit the message that
// carried the buttons; commands and text get a new message.
func Render(c telebot.Context, t i18n.Translator, resp conversation.Response) error {
	if c.Callback() != nil {
		return renderCallback(c, t, resp)
	}

	if resp.Ignored {
		return c.Send(t.T("common.unknown"))
	}

	if resp.MainMenu {
		return c.Send(resp.Text, keyboard.MainMenu(t))
	}

	markup, err := keyboard.FromChoices(resp.Choices)
	if err != nil {
		return err
	}
	if markup == nil {
		return c.Send(resp.Text)
	}
	return c.Send(resp.Text, markup)
}

func renderCallback(c telebot.Context, t i18n.Translator, resp conversation.Response) error {
	switch {
	case resp.Ignored:
		return c.Respond()
	case resp.Notice:
		return c.Respond(&telebot.CallbackResponse{Text: resp.Text, ShowAlert: true})
	}

	markup, err := keyboard.FromChoices(resp.Choices)
	if err != nil {
		return err
	}

	if markup == nil {
		err = c.Edit(resp.Text)
	} else {
		err = c.Edit(resp.Text, markup)
	}
	if err != nil {
		return err
	}

	if resp.MainMenu {
		if err := c.Send(t.T("common.welcome"), keyboard.MainMenu(t)); err != nil {
			return err
		}
	}

	return c.Respond()
}
