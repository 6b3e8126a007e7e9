package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     Step
		to       Step
		expected bool
	}{
		{name: "idle to selecting bank", from: StepIdle, to: StepSelectingBank, expected: true},
		{name: "idle to awaiting friend", from: StepIdle, to: StepAwaitingFriendID, expected: true},
		{name: "idle to choosing entries", from: StepIdle, to: StepChoosingEntries, expected: true},
		{name: "idle to confirming all", from: StepIdle, to: StepConfirmingAll, expected: true},
		{name: "idle to choosing categories", from: StepIdle, to: StepChoosingCategories, expected: true},
		{name: "bank to category", from: StepSelectingBank, to: StepSelectingCategory, expected: true},
		{name: "category back to bank", from: StepSelectingCategory, to: StepSelectingBank, expected: true},
		{name: "category to percent", from: StepSelectingCategory, to: StepSelectingPercent, expected: true},
		{name: "percent back to category", from: StepSelectingPercent, to: StepSelectingCategory, expected: true},
		{name: "percent to period", from: StepSelectingPercent, to: StepSelectingPeriod, expected: true},
		{name: "toggle keeps choosing entries", from: StepChoosingEntries, to: StepChoosingEntries, expected: true},
		{name: "toggle keeps choosing categories", from: StepChoosingCategories, to: StepChoosingCategories, expected: true},
		{name: "categories to entries invalid", from: StepChoosingCategories, to: StepChoosingEntries, expected: false},
		{name: "any step to idle", from: StepSelectingPeriod, to: StepIdle, expected: true},
		{name: "idle to percent invalid", from: StepIdle, to: StepSelectingPercent, expected: false},
		{name: "period back to percent invalid", from: StepSelectingPeriod, to: StepSelectingPercent, expected: false},
		{name: "cross flow invalid", from: StepAwaitingFriendID, to: StepSelectingBank, expected: false},
		{name: "unknown step invalid", from: Step("unknown"), to: StepSelectingBank, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsTransitionAllowed(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
		})
	}
}

func TestStepFlow(t *testing.T) {
	assert.Equal(t, FlowEntry, StepSelectingPeriod.Flow())
	assert.Equal(t, FlowFriend, StepAwaitingFriendID.Flow())
	assert.Equal(t, FlowDeletion, StepConfirmingAll.Flow())
	assert.Equal(t, FlowDeletion, StepChoosingCategories.Flow())
	assert.Equal(t, FlowNone, StepIdle.Flow())
}

func TestConversationValidate(t *testing.T) {
	testCases := []struct {
		name  string
		conv  *Conversation
		valid bool
	}{
		{"bank step", &Conversation{Step: StepSelectingBank, Entry: &EntryDraft{}}, true},
		{"bank step without draft", &Conversation{Step: StepSelectingBank}, false},
		{"percent without category", &Conversation{Step: StepSelectingPercent, Entry: &EntryDraft{BankID: 1}}, false},
		{"period complete", &Conversation{Step: StepSelectingPeriod, Entry: &EntryDraft{BankID: 1, CategoryID: 2, Percent: 5, Candidates: []string{"2024-01", "2024-02"}}}, true},
		{"period without candidates", &Conversation{Step: StepSelectingPeriod, Entry: &EntryDraft{BankID: 1, CategoryID: 2, Percent: 5}}, false},
		{"friend", &Conversation{Step: StepAwaitingFriendID}, true},
		{"choosing without draft", &Conversation{Step: StepChoosingEntries}, false},
		{"categories with draft", &Conversation{Step: StepChoosingCategories, Deletion: &DeletionDraft{}}, true},
		{"categories without draft", &Conversation{Step: StepChoosingCategories}, false},
		{"unknown", &Conversation{Step: Step("bogus")}, false},
		{"idle is never stored", &Conversation{Step: StepIdle}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.conv.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConversation)
			}
		})
	}
}

func TestDeletionDraftToggle(t *testing.T) {
	d := &DeletionDraft{}
	d.Toggle(3)
	d.Toggle(5)
	d.Toggle(3)

	assert.Equal(t, []int64{5}, d.Selected)
	assert.True(t, d.IsSelected(5))
	assert.False(t, d.IsSelected(3))

	var nilDraft *DeletionDraft
	assert.False(t, nilDraft.IsSelected(1))
}
