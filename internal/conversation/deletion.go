package conversation

import (
	"context"
	"slices"

	"github.com/Proton-105/cashback-bot/internal/domain"
	apperrors "github.com/Proton-105/cashback-bot/internal/errors"
	"github.com/Proton-105/cashback-bot/internal/report"
	"github.com/Proton-105/cashback-bot/internal/state"
)

const selectedMark = "✅ "

// deleteMenu is shown without installing any state; its buttons are valid
// only while the user is idle.
func (e *Engine) deleteMenu() Response {
	return Response{
		Text: e.t.T("delete.menu"),
		Choices: [][]Choice{
			{{Label: e.t.T("delete.by_entries"), Action: DeleteByEntries()}},
			{{Label: e.t.T("delete.by_categories"), Action: DeleteByCategories()}},
			{{Label: e.t.T("delete.all"), Action: DeleteAll()}},
			{e.exitChoice()},
		},
	}
}

func (e *Engine) startChoosingEntries(ctx context.Context, userID int64) (Response, error) {
	pairs, err := e.store.ListUserEntryPairs(ctx, userID)
	if err != nil {
		return Response{}, apperrors.NewDatabaseError("list entry pairs", err)
	}

	if len(pairs) == 0 {
		return Response{Text: e.t.T("delete.nothing"), Notice: true}, nil
	}

	conv := &state.Conversation{
		UserID:   userID,
		Step:     state.StepChoosingEntries,
		Deletion: &state.DeletionDraft{Selected: []int64{}},
	}
	if err := e.save(ctx, state.StepIdle, conv); err != nil {
		return Response{}, err
	}

	return e.entryList(pairs, conv.Deletion), nil
}

func (e *Engine) toggleEntry(ctx context.Context, conv *state.Conversation, id int64) (Response, error) {
	pairs, err := e.store.ListUserEntryPairs(ctx, conv.UserID)
	if err != nil {
		return Response{}, e.fail(ctx, conv.UserID, conv.Step, "list entry pairs", err)
	}

	if !slices.ContainsFunc(pairs, func(p domain.EntryPair) bool { return p.ID == id }) {
		return ignored(), nil
	}

	conv.Deletion.Toggle(id)
	if err := e.save(ctx, conv.Step, conv); err != nil {
		return Response{}, err
	}

	return e.entryList(pairs, conv.Deletion), nil
}

func (e *Engine) confirmSelection(ctx context.Context, conv *state.Conversation) (Response, error) {
	if len(conv.Deletion.Selected) > 0 {
		n, err := e.store.DeleteEntries(ctx, conv.UserID, conv.Deletion.Selected)
		if err != nil {
			return Response{}, e.fail(ctx, conv.UserID, conv.Step, "delete entries", err)
		}
		e.observer.EntriesDeleted(ctx, conv.UserID, n)
	}

	return e.finish(ctx, conv.UserID, conv.Step, e.t.T("delete.selected_done"))
}

func (e *Engine) startChoosingCategories(ctx context.Context, userID int64) (Response, error) {
	categories, err := e.store.ListUserCategories(ctx, userID)
	if err != nil {
		return Response{}, apperrors.NewDatabaseError("list user categories", err)
	}

	if len(categories) == 0 {
		return Response{Text: e.t.T("delete.nothing"), Notice: true}, nil
	}

	conv := &state.Conversation{
		UserID:   userID,
		Step:     state.StepChoosingCategories,
		Deletion: &state.DeletionDraft{Selected: []int64{}},
	}
	if err := e.save(ctx, state.StepIdle, conv); err != nil {
		return Response{}, err
	}

	return e.categoryList(categories, conv.Deletion), nil
}

func (e *Engine) toggleCategory(ctx context.Context, conv *state.Conversation, id int64) (Response, error) {
	categories, err := e.store.ListUserCategories(ctx, conv.UserID)
	if err != nil {
		return Response{}, e.fail(ctx, conv.UserID, conv.Step, "list user categories", err)
	}

	if !slices.ContainsFunc(categories, func(c domain.Category) bool { return c.ID == id }) {
		return ignored(), nil
	}

	conv.Deletion.Toggle(id)
	if err := e.save(ctx, conv.Step, conv); err != nil {
		return Response{}, err
	}

	return e.categoryList(categories, conv.Deletion), nil
}

func (e *Engine) confirmCategories(ctx context.Context, conv *state.Conversation) (Response, error) {
	if len(conv.Deletion.Selected) > 0 {
		n, err := e.store.DeleteUserCategories(ctx, conv.UserID, conv.Deletion.Selected)
		if err != nil {
			return Response{}, e.fail(ctx, conv.UserID, conv.Step, "delete user categories", err)
		}
		e.observer.EntriesDeleted(ctx, conv.UserID, n)
	}

	return e.finish(ctx, conv.UserID, conv.Step, e.t.T("delete.categories_done"))
}

func (e *Engine) startConfirmAll(ctx context.Context, userID int64) (Response, error) {
	conv := &state.Conversation{UserID: userID, Step: state.StepConfirmingAll}
	if err := e.save(ctx, state.StepIdle, conv); err != nil {
		return Response{}, err
	}

	return Response{
		Text: e.t.T("delete.confirm_all"),
		Choices: [][]Choice{
			{{Label: e.t.T("common.confirm"), Action: ConfirmDeleteAll()}},
			{{Label: e.t.T("common.cancel"), Action: CancelDeleteAll()}},
		},
	}, nil
}

func (e *Engine) confirmDeleteAll(ctx context.Context, conv *state.Conversation) (Response, error) {
	n, err := e.store.DeleteAllEntries(ctx, conv.UserID)
	if err != nil {
		return Response{}, e.fail(ctx, conv.UserID, conv.Step, "delete all entries", err)
	}
	e.observer.EntriesDeleted(ctx, conv.UserID, n)

	return e.finish(ctx, conv.UserID, conv.Step, e.t.T("delete.all_done"))
}

func (e *Engine) cancelDeleteAll(ctx context.Context, conv *state.Conversation) (Response, error) {
	return e.finish(ctx, conv.UserID, conv.Step, e.t.T("delete.cancelled"))
}

func (e *Engine) entryList(pairs []domain.EntryPair, draft *state.DeletionDraft) Response {
	choices := make([][]Choice, 0, len(pairs)+2)
	for _, p := range pairs {
		label := p.BankName + " → " + p.CategoryName + ": " + report.FormatPercent(p.Percent)
		if draft.IsSelected(p.ID) {
			label = selectedMark + label
		}
		choices = append(choices, []Choice{{Label: label, Action: ToggleEntry(p.ID)}})
	}
	choices = append(choices,
		[]Choice{{Label: e.t.T("delete.confirm_selected"), Action: ConfirmSelection()}},
		[]Choice{{Label: e.t.T("common.cancel"), Action: Exit()}},
	)

	return Response{Text: e.t.T("delete.choose"), Choices: choices}
}

func (e *Engine) categoryList(categories []domain.Category, draft *state.DeletionDraft) Response {
	choices := make([][]Choice, 0, len(categories)+2)
	for _, c := range categories {
		label := c.Name
		if draft.IsSelected(c.ID) {
			label = selectedMark + label
		}
		choices = append(choices, []Choice{{Label: label, Action: ToggleCategory(c.ID)}})
	}
	choices = append(choices,
		[]Choice{{Label: e.t.T("delete.confirm_selected"), Action: ConfirmCategories()}},
		[]Choice{{Label: e.t.T("common.cancel"), Action: Exit()}},
	)

	return Response{Text: e.t.T("delete.choose_categories"), Choices: choices}
}
