// Package conversation implements the menu wizards of the bot: adding a
// cashback entry, linking a friend and deleting entries. It is independent of
// the chat transport; the transport decodes user input into Actions and
// renders the returned Responses.
package conversation

import "strconv"

// ActionKind enumerates everything a user can do.
type ActionKind string

const (
	ActionStartAdd         ActionKind = "start_add"
	ActionStartFriend      ActionKind = "start_friend"
	ActionStartDelete      ActionKind = "start_delete"
	ActionChooseBank       ActionKind = "choose_bank"
	ActionChooseCategory   ActionKind = "choose_category"
	ActionChoosePercent    ActionKind = "choose_percent"
	ActionChoosePeriod     ActionKind = "choose_period"
	ActionBackToBanks      ActionKind = "back_to_banks"
	ActionBackToCategories ActionKind = "back_to_categories"
	ActionExit             ActionKind = "exit"
	ActionText             ActionKind = "text"
	ActionDeleteByEntries  ActionKind = "delete_by_entries"
	ActionDeleteAll        ActionKind = "delete_all"
	ActionToggleEntry      ActionKind = "toggle_entry"
	ActionConfirmSelection ActionKind = "confirm_selection"
	ActionConfirmDeleteAll ActionKind = "confirm_delete_all"
	ActionCancelDeleteAll  ActionKind = "cancel_delete_all"

	ActionDeleteByCategories ActionKind = "delete_by_categories"
	ActionToggleCategory     ActionKind = "toggle_category"
	ActionConfirmCategories  ActionKind = "confirm_categories"
)

// Action is a decoded user input. Only the field matching Kind is set.
type Action struct {
	Kind    ActionKind
	ID      int64
	Percent float64
	Period  string
	Text    string
}

func (a Action) String() string {
	switch a.Kind {
	case ActionChooseBank, ActionChooseCategory, ActionToggleEntry, ActionToggleCategory:
		return string(a.Kind) + ":" + strconv.FormatInt(a.ID, 10)
	case ActionChoosePercent:
		return string(a.Kind) + ":" + strconv.FormatFloat(a.Percent, 'f', -1, 64)
	case ActionChoosePeriod:
		return string(a.Kind) + ":" + a.Period
	default:
		return string(a.Kind)
	}
}

func StartAdd() Action         { return Action{Kind: ActionStartAdd} }
func StartFriend() Action      { return Action{Kind: ActionStartFriend} }
func StartDelete() Action      { return Action{Kind: ActionStartDelete} }
func BackToBanks() Action      { return Action{Kind: ActionBackToBanks} }
func BackToCategories() Action { return Action{Kind: ActionBackToCategories} }
func Exit() Action             { return Action{Kind: ActionExit} }
func DeleteByEntries() Action  { return Action{Kind: ActionDeleteByEntries} }
func DeleteAll() Action        { return Action{Kind: ActionDeleteAll} }
func ConfirmSelection() Action { return Action{Kind: ActionConfirmSelection} }
func ConfirmDeleteAll() Action { return Action{Kind: ActionConfirmDeleteAll} }
func CancelDeleteAll() Action  { return Action{Kind: ActionCancelDeleteAll} }

func DeleteByCategories() Action { return Action{Kind: ActionDeleteByCategories} }
func ConfirmCategories() Action  { return Action{Kind: ActionConfirmCategories} }

func ChooseBank(id int64) Action     { return Action{Kind: ActionChooseBank, ID: id} }
func ChooseCategory(id int64) Action { return Action{Kind: ActionChooseCategory, ID: id} }
func ChoosePercent(p float64) Action { return Action{Kind: ActionChoosePercent, Percent: p} }
func ChoosePeriod(p string) Action   { return Action{Kind: ActionChoosePeriod, Period: p} }
func ToggleEntry(id int64) Action    { return Action{Kind: ActionToggleEntry, ID: id} }
func ToggleCategory(id int64) Action { return Action{Kind: ActionToggleCategory, ID: id} }
func Text(s string) Action           { return Action{Kind: ActionText, Text: s} }
