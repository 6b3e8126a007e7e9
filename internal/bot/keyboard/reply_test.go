package keyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/cashback-bot/internal/bot/keyboard"
	"github.com/Proton-105/cashback-bot/internal/i18n"
)

func TestMainMenu(t *testing.T) {
	markup := keyboard.MainMenu(i18n.MustLoad("ru").Default())

	assert.True(t, markup.ResizeKeyboard)

	expectedRows := [][]string{
		{"📊 Показать мой кешбек", "🤝 Показать наш кешбек"},
		{"➕ Добавить друга"},
	}

	require.Len(t, markup.ReplyKeyboard, len(expectedRows))
	for i, row := range expectedRows {
		require.Len(t, markup.ReplyKeyboard[i], len(row))
		for j, text := range row {
			assert.Equal(t, text, markup.ReplyKeyboard[i][j].Text)
		}
	}
}
