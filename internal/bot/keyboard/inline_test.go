package keyboard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/cashback-bot/internal/bot/keyboard"
	"github.com/Proton-105/cashback-bot/internal/conversation"
)

func TestInlineKeyboardBuilder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		builder := keyboard.NewInlineKeyboard()
		builder.AddRow(
			keyboard.InlineButton{Text: "1%", Unique: "pct", Data: "1"},
			keyboard.InlineButton{Text: "2%", Unique: "pct", Data: "2"},
		).AddRow(
			keyboard.InlineButton{Text: "Выход", Unique: "exit"},
		)

		markup, err := builder.Build()
		require.NoError(t, err)
		require.NotNil(t, markup)

		require.Len(t, markup.InlineKeyboard, 2)
		assert.Len(t, markup.InlineKeyboard[0], 2)
		assert.Len(t, markup.InlineKeyboard[1], 1)
		assert.Equal(t, "pct:2", markup.InlineKeyboard[0][1].Data)
		assert.Equal(t, "exit", markup.InlineKeyboard[1][0].Data)
	})

	t.Run("callback data overflow", func(t *testing.T) {
		builder := keyboard.NewInlineKeyboard()
		builder.AddRow(keyboard.InlineButton{
			Text:   "Too big",
			Unique: "overflow",
			Data:   strings.Repeat("x", keyboard.CallbackDataLimitBytes),
		})

		_, err := builder.Build()
		assert.Error(t, err)
	})
}

func TestFromChoices(t *testing.T) {
	markup, err := keyboard.FromChoices([][]conversation.Choice{
		{{Label: "Т-банк", Action: conversation.ChooseBank(1)}},
		{
			{Label: "🔙 Назад", Action: conversation.BackToBanks()},
			{Label: "✖️ Выход", Action: conversation.Exit()},
		},
	})
	require.NoError(t, err)

	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "Т-банк", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "bank:1", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "back:bank", markup.InlineKeyboard[1][0].Data)
	assert.Equal(t, "exit", markup.InlineKeyboard[1][1].Data)

	empty, err := keyboard.FromChoices(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}
