package conversation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Proton-105/cashback-bot/internal/domain"
	apperrors "github.com/Proton-105/cashback-bot/internal/errors"
	"github.com/Proton-105/cashback-bot/internal/i18n"
	"github.com/Proton-105/cashback-bot/internal/state"
)

// Store is the data the wizards read and write.
type Store interface {
	ListBanks(ctx context.Context) ([]domain.Bank, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListUserPeriods(ctx context.Context, userID, bankID, categoryID int64) ([]string, error)
	InsertCashback(ctx context.Context, e domain.CashbackEntry) (int64, error)
	ReplaceCashback(ctx context.Context, e domain.CashbackEntry) (int64, error)
	ListUserEntryPairs(ctx context.Context, userID int64) ([]domain.EntryPair, error)
	DeleteEntries(ctx context.Context, userID int64, ids []int64) (int64, error)
	DeleteAllEntries(ctx context.Context, userID int64) (int64, error)
	ListUserCategories(ctx context.Context, userID int64) ([]domain.Category, error)
	DeleteUserCategories(ctx context.Context, userID int64, categoryIDs []int64) (int64, error)
	SetFriend(ctx context.Context, userID, friendID int64) error
}

// Observer receives the data effects of completed wizards.
type Observer interface {
	EntrySaved(ctx context.Context, userID int64, replaced bool)
	EntriesDeleted(ctx context.Context, userID int64, n int64)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the source of the current time used for period calculation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithObserver registers an observer of data effects.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// Engine runs the conversation state machine.
type Engine struct {
	store    Store
	machine  *state.Machine
	t        i18n.Translator
	log      *slog.Logger
	now      func() time.Time
	observer Observer
}

// NewEngine creates an Engine.
func NewEngine(store Store, machine *state.Machine, t i18n.Translator, log *slog.Logger, opts ...Option) *Engine {
	if log == nil {
		log = slog.Default()
	}

	e := &Engine{
		store:    store,
		machine:  machine,
		t:        t,
		log:      log,
		now:      time.Now,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle applies one user action. Actions that make no sense in the current
// state yield an ignored response, never an error. Errors are returned only
// for infrastructure failures, after the user's state has been reset.
func (e *Engine) Handle(ctx context.Context, userID int64, a Action) (Response, error) {
	var resp Response

	err := e.machine.WithLock(ctx, userID, func(ctx context.Context) error {
		var err error
		resp, err = e.handle(ctx, userID, a)
		return err
	})
	if errors.Is(err, state.ErrStateLocked) {
		return Response{}, apperrors.NewStateError("conversation is busy", err)
	}
	if err != nil {
		return Response{}, err
	}

	if resp.Ignored {
		e.log.DebugContext(ctx, "action ignored", slog.Int64("user_id", userID), slog.String("action", a.String()))
	}
	return resp, nil
}

func (e *Engine) handle(ctx context.Context, userID int64, a Action) (Response, error) {
	conv, err := e.machine.Current(ctx, userID)
	if err != nil {
		return Response{}, apperrors.NewDatabaseError("load conversation", err)
	}
	step := state.StepOf(conv)

	// starting a wizard or exiting works from anywhere
	switch a.Kind {
	case ActionStartAdd:
		if err := e.reset(ctx, userID, step); err != nil {
			return Response{}, err
		}
		return e.startEntry(ctx, userID)
	case ActionStartFriend:
		if err := e.reset(ctx, userID, step); err != nil {
			return Response{}, err
		}
		return e.startFriend(ctx, userID)
	case ActionStartDelete:
		if err := e.reset(ctx, userID, step); err != nil {
			return Response{}, err
		}
		return e.deleteMenu(), nil
	case ActionExit:
		if err := e.reset(ctx, userID, step); err != nil {
			return Response{}, err
		}
		return Response{Text: e.t.T("common.cancelled"), Done: true}, nil
	}

	switch step {
	case state.StepIdle:
		switch a.Kind {
		case ActionDeleteByEntries:
			return e.startChoosingEntries(ctx, userID)
		case ActionDeleteByCategories:
			return e.startChoosingCategories(ctx, userID)
		case ActionDeleteAll:
			return e.startConfirmAll(ctx, userID)
		}
	case state.StepSelectingBank:
		if a.Kind == ActionChooseBank {
			return e.chooseBank(ctx, conv, a.ID)
		}
	case state.StepSelectingCategory:
		switch a.Kind {
		case ActionChooseCategory:
			return e.chooseCategory(ctx, conv, a.ID)
		case ActionBackToBanks:
			return e.backToBanks(ctx, conv)
		}
	case state.StepSelectingPercent:
		switch a.Kind {
		case ActionChoosePercent:
			return e.choosePercent(ctx, conv, a.Percent)
		case ActionBackToCategories:
			return e.backToCategories(ctx, conv)
		}
	case state.StepSelectingPeriod:
		if a.Kind == ActionChoosePeriod {
			return e.choosePeriod(ctx, conv, a.Period)
		}
	case state.StepAwaitingFriendID:
		if a.Kind == ActionText {
			return e.friendID(ctx, conv, a.Text)
		}
	case state.StepChoosingEntries:
		switch a.Kind {
		case ActionToggleEntry:
			return e.toggleEntry(ctx, conv, a.ID)
		case ActionConfirmSelection:
			return e.confirmSelection(ctx, conv)
		}
	case state.StepChoosingCategories:
		switch a.Kind {
		case ActionToggleCategory:
			return e.toggleCategory(ctx, conv, a.ID)
		case ActionConfirmCategories:
			return e.confirmCategories(ctx, conv)
		}
	case state.StepConfirmingAll:
		switch a.Kind {
		case ActionConfirmDeleteAll:
			return e.confirmDeleteAll(ctx, conv)
		case ActionCancelDeleteAll:
			return e.cancelDeleteAll(ctx, conv)
		}
	}

	return ignored(), nil
}

func (e *Engine) reset(ctx context.Context, userID int64, from state.Step) error {
	if from == state.StepIdle {
		return nil
	}
	if err := e.machine.Reset(ctx, userID, from); err != nil {
		return apperrors.NewDatabaseError("reset conversation", err)
	}
	return nil
}

func (e *Engine) save(ctx context.Context, from state.Step, conv *state.Conversation) error {
	if err := e.machine.Save(ctx, from, conv); err != nil {
		return e.fail(ctx, conv.UserID, from, "save conversation", err)
	}
	return nil
}

// fail resets the user to idle on a best effort basis and wraps err.
func (e *Engine) fail(ctx context.Context, userID int64, from state.Step, op string, err error) error {
	if resetErr := e.machine.Reset(ctx, userID, from); resetErr != nil {
		e.log.ErrorContext(ctx, "failed to reset conversation after error",
			slog.Int64("user_id", userID),
			slog.String("op", op),
			slog.Any("error", resetErr),
		)
	}
	return apperrors.NewDatabaseError(op, err)
}

// finish ends the wizard after its side effect has been applied.
func (e *Engine) finish(ctx context.Context, userID int64, from state.Step, text string) (Response, error) {
	if err := e.machine.Reset(ctx, userID, from); err != nil {
		return Response{}, apperrors.NewDatabaseError("finish conversation", err)
	}
	return Response{Text: text, Done: true}, nil
}

func (e *Engine) exitChoice() Choice {
	return Choice{Label: e.t.T("common.exit"), Action: Exit()}
}

type nopObserver struct{}

func (nopObserver) EntrySaved(context.Context, int64, bool)      {}
func (nopObserver) EntriesDeleted(context.Context, int64, int64) {}
