package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashback-bot/internal/conversation"
)

// InlineButton represents a lightweight inline keyboard button definition used by the builder.
type InlineButton struct {
	Text   string
	Unique string // Identifier that differentiates callback handlers.
	Data   string // Payload that will be encoded into callback data.
}

// InlineKeyboardBuilder accumulates rows of InlineButton definitions before rendering telebot markup.
type InlineKeyboardBuilder struct {
	rows [][]InlineButton
}

// NewInlineKeyboard creates an empty builder.
func NewInlineKeyboard() *InlineKeyboardBuilder {
	return &InlineKeyboardBuilder{
		rows: make([][]InlineButton, 0),
	}
}

// AddRow appends a new row made of custom InlineButton definitions.
func (b *InlineKeyboardBuilder) AddRow(buttons ...InlineButton) *InlineKeyboardBuilder {
	if len(buttons) == 0 {
		return b
	}

	row := make([]InlineButton, len(buttons))
	copy(row, buttons)
	b.rows = append(b.rows, row)
	return b
}

// Build renders the inline markup. It fails when any button exceeds the
// callback data limit.
func (b *InlineKeyboardBuilder) Build() (*telebot.ReplyMarkup, error) {
	inlineKeyboard := make([][]telebot.InlineButton, len(b.rows))
	for i, row := range b.rows {
		inlineKeyboard[i] = make([]telebot.InlineButton, len(row))
		for j, btn := range row {
			data, err := EncodeCallback(btn.Unique, btn.Data)
			if err != nil {
				return nil, err
			}
			inlineKeyboard[i][j] = telebot.InlineButton{
				Text: btn.Text,
				Data: data,
			}
		}
	}

	return &telebot.ReplyMarkup{InlineKeyboard: inlineKeyboard}, nil
}

// FromChoices renders wizard choices as an inline keyboard. Nil choices
// yield nil markup.
func FromChoices(choices [][]conversation.Choice) (*telebot.ReplyMarkup, error) {
	if len(choices) == 0 {
		return nil, nil
	}

	builder := NewInlineKeyboard()
	for _, row := range choices {
		buttons := make([]InlineButton, 0, len(row))
		for _, choice := range row {
			unique, data, err := ActionButton(choice.Action)
			if err != nil {
				return nil, err
			}
			buttons = append(buttons, InlineButton{Text: choice.Label, Unique: unique, Data: data})
		}
		builder.AddRow(buttons...)
	}

	return builder.Build()
}
