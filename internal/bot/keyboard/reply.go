package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashback-bot/internal/i18n"
)

// Main menu button keys. The button text doubles as the message the
// transport matches on.
const (
	MenuMyCashback  = "menu.my_cashback"
	MenuOurCashback = "menu.our_cashback"
	MenuAddFriend   = "menu.add_friend"
)

// MainMenu builds a localized reply keyboard for the bot main menu.
func MainMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	lookup := func(key string) string {
		if t == nil {
			return key
		}
		return t.T(key)
	}

	mineBtn := markup.Text(lookup(MenuMyCashback))
	oursBtn := markup.Text(lookup(MenuOurCashback))
	friendBtn := markup.Text(lookup(MenuAddFriend))

	markup.Reply(
		markup.Row(mineBtn, oursBtn),
		markup.Row(friendBtn),
	)

	return markup
}
