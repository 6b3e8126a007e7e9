package state

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Step is the position of a user inside one of the conversation wizards.
// A user without a stored conversation is idle.
type Step string

const (
	// StepIdle means no wizard is active. It is never persisted.
	StepIdle Step = "idle"

	// StepSelectingBank waits for the bank of a new entry.
	StepSelectingBank Step = "selecting_bank"
	// StepSelectingCategory waits for the category of a new entry.
	StepSelectingCategory Step = "selecting_category"
	// StepSelectingPercent waits for the percentage of a new entry.
	StepSelectingPercent Step = "selecting_percent"
	// StepSelectingPeriod waits for an explicit period when both candidates are taken.
	StepSelectingPeriod Step = "selecting_period"

	// StepAwaitingFriendID waits for the numeric id of a friend.
	StepAwaitingFriendID Step = "awaiting_friend_id"

	// StepChoosingEntries collects the entries to delete.
	StepChoosingEntries Step = "choosing_entries"
	// StepChoosingCategories collects the categories whose entries are deleted.
	StepChoosingCategories Step = "choosing_categories"
	// StepConfirmingAll waits for confirmation of a bulk delete.
	StepConfirmingAll Step = "confirming_all"
)

// Flow groups steps into mutually exclusive wizards.
type Flow string

const (
	FlowNone     Flow = "none"
	FlowEntry    Flow = "entry"
	FlowFriend   Flow = "friend"
	FlowDeletion Flow = "deletion"
)

// Flow returns the wizard the step belongs to.
func (s Step) Flow() Flow {
	switch s {
	case StepSelectingBank, StepSelectingCategory, StepSelectingPercent, StepSelectingPeriod:
		return FlowEntry
	case StepAwaitingFriendID:
		return FlowFriend
	case StepChoosingEntries, StepChoosingCategories, StepConfirmingAll:
		return FlowDeletion
	default:
		return FlowNone
	}
}

// Steps lists every persisted step.
func Steps() []Step {
	return []Step{
		StepSelectingBank,
		StepSelectingCategory,
		StepSelectingPercent,
		StepSelectingPeriod,
		StepAwaitingFriendID,
		StepChoosingEntries,
		StepChoosingCategories,
		StepConfirmingAll,
	}
}

// EntryDraft accumulates the choices of the entry wizard.
type EntryDraft struct {
	BankID     int64    `json:"bank_id,omitempty"`
	CategoryID int64    `json:"category_id,omitempty"`
	Percent    float64  `json:"percent,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

// DeletionDraft holds the entry or category ids selected for deletion.
type DeletionDraft struct {
	Selected []int64 `json:"selected"`
}

// Toggle adds id to the selection or removes it when already selected.
func (d *DeletionDraft) Toggle(id int64) {
	if i := slices.Index(d.Selected, id); i >= 0 {
		d.Selected = slices.Delete(d.Selected, i, i+1)
		return
	}
	d.Selected = append(d.Selected, id)
}

// IsSelected reports whether id is part of the selection.
func (d *DeletionDraft) IsSelected(id int64) bool {
	return d != nil && slices.Contains(d.Selected, id)
}

// Conversation is the persisted state of an active wizard.
type Conversation struct {
	UserID    int64          `json:"user_id"`
	Step      Step           `json:"step"`
	Entry     *EntryDraft    `json:"entry,omitempty"`
	Deletion  *DeletionDraft `json:"deletion,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ErrInvalidConversation is returned by Validate for impossible combinations
// of step and wizard data.
var ErrInvalidConversation = errors.New("invalid conversation state")

// Validate checks that the data required by the step is present.
func (c *Conversation) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil", ErrInvalidConversation)
	}

	invalid := func(reason string) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidConversation, c.Step, reason)
	}

	switch c.Step {
	case StepSelectingBank:
		if c.Entry == nil {
			return invalid("missing entry draft")
		}
	case StepSelectingCategory:
		if c.Entry == nil || c.Entry.BankID <= 0 {
			return invalid("missing bank")
		}
	case StepSelectingPercent:
		if c.Entry == nil || c.Entry.BankID <= 0 || c.Entry.CategoryID <= 0 {
			return invalid("missing bank or category")
		}
	case StepSelectingPeriod:
		if c.Entry == nil || c.Entry.BankID <= 0 || c.Entry.CategoryID <= 0 || c.Entry.Percent <= 0 {
			return invalid("incomplete entry draft")
		}
		if len(c.Entry.Candidates) == 0 {
			return invalid("missing period candidates")
		}
	case StepAwaitingFriendID, StepConfirmingAll:
	case StepChoosingEntries, StepChoosingCategories:
		if c.Deletion == nil {
			return invalid("missing deletion draft")
		}
	default:
		return invalid("unknown step")
	}

	return nil
}
