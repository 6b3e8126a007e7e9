package state

import "slices"

// validTransitions lists the forward and backward moves inside each wizard.
// Returning to idle and starting a wizard are handled by IsTransitionAllowed.
var validTransitions = map[Step][]Step{
	StepSelectingBank: {
		StepSelectingCategory,
	},
	StepSelectingCategory: {
		StepSelectingBank,
		StepSelectingPercent,
	},
	StepSelectingPercent: {
		StepSelectingCategory,
		StepSelectingPeriod,
	},
	StepChoosingEntries: {
		StepChoosingEntries,
	},
	StepChoosingCategories: {
		StepChoosingCategories,
	},
}

// entrySteps are the steps a wizard may start in.
var entrySteps = []Step{
	StepSelectingBank,
	StepAwaitingFriendID,
	StepChoosingEntries,
	StepChoosingCategories,
	StepConfirmingAll,
}

// IsTransitionAllowed reports whether moving from one step to another is valid.
func IsTransitionAllowed(from, to Step) bool {
	if to == StepIdle {
		return true
	}

	if from == StepIdle {
		return slices.Contains(entrySteps, to)
	}

	return slices.Contains(validTransitions[from], to)
}
