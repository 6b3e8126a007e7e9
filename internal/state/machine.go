package state

import (
	"context"
	"errors"
	"log/slog"
)

var (
	// ErrInvalidTransition indicates that a requested step change is not allowed.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrStateNotFound indicates that a user state record does not exist.
	ErrStateNotFound = errors.New("user state not found")
	// ErrStateLocked indicates that a concurrent operation already holds the lock.
	ErrStateLocked = errors.New("state is locked, try again later")
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe step transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// Machine guards conversation state: it serializes access per user, checks
// transitions and drops stored state that fails validation.
type Machine struct {
	storage Storage
	locker  Locker
	log     *slog.Logger
}

// NewMachine creates a Machine over storage. A nil locker means an in-process one.
func NewMachine(storage Storage, locker Locker, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	if locker == nil {
		locker = NewMemoryLocker()
	}

	return &Machine{
		storage: storage,
		locker:  locker,
		log:     log,
	}
}

// WithLock runs fn while holding the user's lock.
func (m *Machine) WithLock(ctx context.Context, userID int64, fn func(ctx context.Context) error) error {
	unlock, err := m.locker.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	return fn(ctx)
}

// Current returns the user's conversation, or nil when the user is idle.
// A stored conversation that fails validation is cleared and treated as idle.
func (m *Machine) Current(ctx context.Context, userID int64) (*Conversation, error) {
	conv, err := m.storage.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := conv.Validate(); err != nil {
		m.log.WarnContext(ctx, "dropping invalid conversation state", slog.Int64("user_id", userID), slog.Any("error", err))
		if clearErr := m.storage.Clear(ctx, userID); clearErr != nil {
			return nil, clearErr
		}
		transitionRecorder(string(conv.Step), string(StepIdle))
		return nil, nil
	}

	return conv, nil
}

// Save persists conv after checking that moving from the previous step is allowed.
func (m *Machine) Save(ctx context.Context, from Step, conv *Conversation) error {
	if !IsTransitionAllowed(from, conv.Step) {
		m.log.WarnContext(ctx, "invalid state transition",
			slog.Int64("user_id", conv.UserID),
			slog.String("from", string(from)),
			slog.String("to", string(conv.Step)),
		)
		return ErrInvalidTransition
	}

	if err := conv.Validate(); err != nil {
		return err
	}

	if err := m.storage.Set(ctx, conv); err != nil {
		return err
	}

	if from != conv.Step {
		transitionRecorder(string(from), string(conv.Step))
	}
	return nil
}

// Reset returns the user to idle.
func (m *Machine) Reset(ctx context.Context, userID int64, from Step) error {
	if err := m.storage.Clear(ctx, userID); err != nil {
		return err
	}

	if from != StepIdle {
		transitionRecorder(string(from), string(StepIdle))
	}
	return nil
}

// All returns every active conversation.
func (m *Machine) All(ctx context.Context) ([]*Conversation, error) {
	return m.storage.All(ctx)
}

// StepOf returns the step of conv, or StepIdle for nil.
func StepOf(conv *Conversation) Step {
	if conv == nil {
		return StepIdle
	}
	return conv.Step
}
