package keyboard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/cashback-bot/internal/bot/keyboard"
	"github.com/Proton-105/cashback-bot/internal/conversation"
)

func TestEncodeCallback(t *testing.T) {
	tests := []struct {
		name      string
		unique    string
		data      string
		want      string
		wantError bool
	}{
		{
			name:   "with data",
			unique: "bank",
			data:   "2",
			want:   "bank:2",
		},
		{
			name:   "without data",
			unique: "exit",
			data:   "",
			want:   "exit",
		},
		{
			name:      "exceeds limit",
			unique:    strings.Repeat("x", keyboard.CallbackDataLimitBytes+1),
			data:      "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyboard.EncodeCallback(tt.unique, tt.data)
			if tt.wantError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCallback(t *testing.T) {
	unique, data, err := keyboard.DecodeCallback("period:2024-01")
	require.NoError(t, err)
	assert.Equal(t, "period", unique)
	assert.Equal(t, "2024-01", data)

	unique, data, err = keyboard.DecodeCallback("exit")
	require.NoError(t, err)
	assert.Equal(t, "exit", unique)
	assert.Empty(t, data)

	_, _, err = keyboard.DecodeCallback("")
	assert.Error(t, err)
}

func TestEncodeAction(t *testing.T) {
	tests := []struct {
		action conversation.Action
		want   string
	}{
		{conversation.ChooseBank(3), "bank:3"},
		{conversation.ChooseCategory(7), "cat:7"},
		{conversation.ChoosePercent(7.5), "pct:7.5"},
		{conversation.ChoosePercent(15), "pct:15"},
		{conversation.ChoosePeriod("2024-01"), "period:2024-01"},
		{conversation.BackToBanks(), "back:bank"},
		{conversation.BackToCategories(), "back:cat"},
		{conversation.Exit(), "exit"},
		{conversation.DeleteByEntries(), "del:entries"},
		{conversation.DeleteAll(), "del:all"},
		{conversation.ToggleEntry(42), "toggle:42"},
		{conversation.ConfirmSelection(), "toggle:done"},
		{conversation.DeleteByCategories(), "del:categories"},
		{conversation.ToggleCategory(2), "delcat:2"},
		{conversation.ConfirmCategories(), "delcat:done"},
		{conversation.ConfirmDeleteAll(), "delall:yes"},
		{conversation.CancelDeleteAll(), "delall:no"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := keyboard.EncodeAction(tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			decoded, err := keyboard.DecodeAction(got)
			require.NoError(t, err)
			assert.Equal(t, tt.action, decoded)
		})
	}
}

func TestEncodeActionRejectsTextActions(t *testing.T) {
	_, err := keyboard.EncodeAction(conversation.Text("hello"))
	assert.Error(t, err)

	_, err = keyboard.EncodeAction(conversation.StartAdd())
	assert.Error(t, err)
}

func TestDecodeActionRejectsForgedData(t *testing.T) {
	inputs := []string{
		"bank:abc",
		"bank:-1",
		"bank:0",
		"cat:",
		"pct:x",
		"pct:-5",
		"period:2024-13",
		"period:24-01",
		"back:home",
		"exit:now",
		"del:some",
		"toggle:",
		"delcat:",
		"delcat:-3",
		"delall:maybe",
		"settings_toggle_notifications",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := keyboard.DecodeAction(input)
			assert.ErrorIs(t, err, keyboard.ErrUnknownCallback)
		})
	}
}
