package conversation

import (
	"context"
	"slices"

	"github.com/Proton-105/cashback-bot/internal/domain"
	"github.com/Proton-105/cashback-bot/internal/i18n"
	"github.com/Proton-105/cashback-bot/internal/period"
	"github.com/Proton-105/cashback-bot/internal/report"
	"github.com/Proton-105/cashback-bot/internal/state"
)

// PercentRows is the fixed percentage menu.
var PercentRows = [][]float64{
	{1, 2, 3},
	{4, 5, 6},
	{7, 8, 9},
	{10, 15},
}

// ValidPercent reports whether p is offered by the percentage menu.
func ValidPercent(p float64) bool {
	for _, row := range PercentRows {
		if slices.Contains(row, p) {
			return true
		}
	}
	return false
}

func (e *Engine) startEntry(ctx context.Context, userID int64) (Response, error) {
	conv := &state.Conversation{
		UserID: userID,
		Step:   state.StepSelectingBank,
		Entry:  &state.EntryDraft{},
	}
	return e.showBanks(ctx, state.StepIdle, conv)
}

func (e *Engine) showBanks(ctx context.Context, from state.Step, conv *state.Conversation) (Response, error) {
	banks, err := e.store.ListBanks(ctx)
	if err != nil {
		return Response{}, e.fail(ctx, conv.UserID, from, "list banks", err)
	}

	if err := e.save(ctx, from, conv); err != nil {
		return Response{}, err
	}

	choices := make([][]Choice, 0, len(banks)+1)
	for _, b := range banks {
		choices = append(choices, []Choice{{Label: b.Name, Action: ChooseBank(b.ID)}})
	}
	choices = append(choices, []Choice{e.exitChoice()})

	return Response{Text: e.t.T("entry.choose_bank"), Choices: choices}, nil
}

func (e *Engine) showCategories(ctx context.Context, from state.Step, conv *state.Conversation) (Response, error) {
	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return Response{}, e.fail(ctx, conv.UserID, from, "list categories", err)
	}

	if err := e.save(ctx, from, conv); err != nil {
		return Response{}, err
	}

	choices := make([][]Choice, 0, len(categories)+1)
	for _, c := range categories {
		choices = append(choices, []Choice{{Label: c.Name, Action: ChooseCategory(c.ID)}})
	}
	choices = append(choices, []Choice{
		{Label: e.t.T("common.back"), Action: BackToBanks()},
		e.exitChoice(),
	})

	return Response{Text: e.t.T("entry.choose_category"), Choices: choices}, nil
}

func (e *Engine) showPercents(ctx context.Context, from state.Step, conv *state.Conversation) (Response, error) {
	if err := e.save(ctx, from, conv); err != nil {
		return Response{}, err
	}

	choices := make([][]Choice, 0, len(PercentRows)+1)
	for _, row := range PercentRows {
		line := make([]Choice, 0, len(row))
		for _, p := range row {
			line = append(line, Choice{Label: report.FormatPercent(p), Action: ChoosePercent(p)})
		}
		choices = append(choices, line)
	}
	choices = append(choices, []Choice{
		{Label: e.t.T("common.back"), Action: BackToCategories()},
		e.exitChoice(),
	})

	return Response{Text: e.t.T("entry.choose_percent"), Choices: choices}, nil
}

func (e *Engine) chooseBank(ctx context.Context, conv *state.Conversation, bankID int64) (Response, error) {
	banks, err := e.store.ListBanks(ctx)
	if err != nil {
		return Response{}, e.fail(ctx, conv.UserID, conv.Step, "list banks", err)
	}
	if !slices.ContainsFunc(banks, func(b domain.Bank) bool { return b.ID == bankID }) {
		return ignored(), nil
	}

	from := conv.Step
	conv.Step = state.StepSelectingCategory
	conv.Entry.BankID = bankID
	return e.showCategories(ctx, from, conv)
}

func (e *Engine) backToBanks(ctx context.Context, conv *state.Conversation) (Response, error) {
	from := conv.Step
	conv.Step = state.StepSelectingBank
	conv.Entry = &state.EntryDraft{}
	return e.showBanks(ctx, from, conv)
}

func (e *Engine) chooseCategory(ctx context.Context, conv *state.Conversation, categoryID int64) (Response, error) {
	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return Response{}, e.fail(ctx, conv.UserID, conv.Step, "list categories", err)
	}
	if !slices.ContainsFunc(categories, func(c domain.Category) bool { return c.ID == categoryID }) {
		return ignored(), nil
	}

	from := conv.Step
	conv.Step = state.StepSelectingPercent
	conv.Entry.CategoryID = categoryID
	return e.showPercents(ctx, from, conv)
}

func (e *Engine) backToCategories(ctx context.Context, conv *state.Conversation) (Response, error) {
	from := conv.Step
	conv.Step = state.StepSelectingCategory
	conv.Entry.CategoryID = 0
	return e.showCategories(ctx, from, conv)
}

func (e *Engine) choosePercent(ctx context.Context, conv *state.Conversation, percent float64) (Response, error) {
	if !ValidPercent(percent) {
		return ignored(), nil
	}

	draft := conv.Entry
	existing, err := e.store.ListUserPeriods(ctx, conv.UserID, draft.BankID, draft.CategoryID)
	if err != nil {
		return Response{}, e.fail(ctx, conv.UserID, conv.Step, "list periods", err)
	}

	decision := period.Determine(existing, e.now())
	if !decision.Ambiguous {
		entry := domain.CashbackEntry{
			UserID:     conv.UserID,
			BankID:     draft.BankID,
			CategoryID: draft.CategoryID,
			Percent:    percent,
			Period:     decision.Period,
		}
		if _, err := e.store.InsertCashback(ctx, entry); err != nil {
			return Response{}, e.fail(ctx, conv.UserID, conv.Step, "insert cashback", err)
		}
		e.observer.EntrySaved(ctx, conv.UserID, false)
		return e.finish(ctx, conv.UserID, conv.Step, e.t.T("entry.added"))
	}

	from := conv.Step
	conv.Step = state.StepSelectingPeriod
	draft.Percent = percent
	draft.Candidates = decision.Candidates()
	if err := e.save(ctx, from, conv); err != nil {
		return Response{}, err
	}

	choices := [][]Choice{
		{
			{Label: i18n.Tf(e.t, "entry.period_current", decision.Current), Action: ChoosePeriod(decision.Current)},
			{Label: i18n.Tf(e.t, "entry.period_next", decision.Next), Action: ChoosePeriod(decision.Next)},
		},
		{e.exitChoice()},
	}
	return Response{Text: e.t.T("entry.choose_period"), Choices: choices}, nil
}

// choosePeriod writes the entry into the chosen period, replacing the entry
// that already occupies it.
func (e *Engine) choosePeriod(ctx context.Context, conv *state.Conversation, p string) (Response, error) {
	draft := conv.Entry
	if !period.Valid(p) || !slices.Contains(draft.Candidates, p) {
		return ignored(), nil
	}

	entry := domain.CashbackEntry{
		UserID:     conv.UserID,
		BankID:     draft.BankID,
		CategoryID: draft.CategoryID,
		Percent:    draft.Percent,
		Period:     p,
	}
	if _, err := e.store.ReplaceCashback(ctx, entry); err != nil {
		return Response{}, e.fail(ctx, conv.UserID, conv.Step, "replace cashback", err)
	}
	e.observer.EntrySaved(ctx, conv.UserID, true)

	return e.finish(ctx, conv.UserID, conv.Step, e.t.T("entry.added"))
}
