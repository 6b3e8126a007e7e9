package state

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errStorageFailure = errors.New("storage error")

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Get(ctx context.Context, userID int64) (*Conversation, error) {
	args := m.Called(ctx, userID)
	conv, _ := args.Get(0).(*Conversation)
	return conv, args.Error(1)
}

func (m *mockStorage) Set(ctx context.Context, conv *Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

func (m *mockStorage) Clear(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockStorage) All(ctx context.Context) ([]*Conversation, error) {
	args := m.Called(ctx)
	convs, _ := args.Get(0).([]*Conversation)
	return convs, args.Error(1)
}

func TestMachine_Save(t *testing.T) {
	ctx := context.Background()
	userID := int64(42)

	testCases := []struct {
		name        string
		setupMocks  func(ms *mockStorage)
		from        Step
		conv        *Conversation
		expectedErr error
	}{
		{
			name: "start entry wizard",
			setupMocks: func(ms *mockStorage) {
				ms.On("Set", mock.Anything, mock.MatchedBy(func(c *Conversation) bool {
					return c.Step == StepSelectingBank
				})).Return(nil).Once()
			},
			from: StepIdle,
			conv: &Conversation{UserID: userID, Step: StepSelectingBank, Entry: &EntryDraft{}},
		},
		{
			name:        "skipping steps is rejected",
			setupMocks:  func(ms *mockStorage) {},
			from:        StepSelectingBank,
			conv:        &Conversation{UserID: userID, Step: StepSelectingPercent, Entry: &EntryDraft{BankID: 1, CategoryID: 2}},
			expectedErr: ErrInvalidTransition,
		},
		{
			name:        "incomplete draft is rejected",
			setupMocks:  func(ms *mockStorage) {},
			from:        StepSelectingBank,
			conv:        &Conversation{UserID: userID, Step: StepSelectingCategory, Entry: &EntryDraft{}},
			expectedErr: ErrInvalidConversation,
		},
		{
			name: "storage failure",
			setupMocks: func(ms *mockStorage) {
				ms.On("Set", mock.Anything, mock.Anything).Return(errStorageFailure).Once()
			},
			from:        StepIdle,
			conv:        &Conversation{UserID: userID, Step: StepAwaitingFriendID},
			expectedErr: errStorageFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ms := &mockStorage{}
			tc.setupMocks(ms)

			m := NewMachine(ms, nil, testLogger())
			err := m.Save(ctx, tc.from, tc.conv)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.NoError(t, err)
			}

			ms.AssertExpectations(t)
		})
	}
}

func TestMachine_Current(t *testing.T) {
	ctx := context.Background()
	userID := int64(7)

	testCases := []struct {
		name       string
		setupMocks func(ms *mockStorage)
		expectStep Step
		expectErr  error
	}{
		{
			name: "state found",
			setupMocks: func(ms *mockStorage) {
				ms.On("Get", mock.Anything, userID).
					Return(&Conversation{UserID: userID, Step: StepConfirmingAll}, nil).Once()
			},
			expectStep: StepConfirmingAll,
		},
		{
			name: "state not found means idle",
			setupMocks: func(ms *mockStorage) {
				ms.On("Get", mock.Anything, userID).
					Return((*Conversation)(nil), ErrStateNotFound).Once()
			},
			expectStep: StepIdle,
		},
		{
			name: "invalid state is cleared",
			setupMocks: func(ms *mockStorage) {
				ms.On("Get", mock.Anything, userID).
					Return(&Conversation{UserID: userID, Step: StepSelectingPercent}, nil).Once()
				ms.On("Clear", mock.Anything, userID).Return(nil).Once()
			},
			expectStep: StepIdle,
		},
		{
			name: "storage failure",
			setupMocks: func(ms *mockStorage) {
				ms.On("Get", mock.Anything, userID).
					Return((*Conversation)(nil), errStorageFailure).Once()
			},
			expectStep: StepIdle,
			expectErr:  errStorageFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ms := &mockStorage{}
			tc.setupMocks(ms)

			conv, err := NewMachine(ms, nil, testLogger()).Current(ctx, userID)

			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.expectStep, StepOf(conv))

			ms.AssertExpectations(t)
		})
	}
}

func TestMachine_RecordsTransitions(t *testing.T) {
	var (
		mu   sync.Mutex
		seen [][2]string
	)
	RegisterTransitionRecorder(func(from, to string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, [2]string{from, to})
	})
	t.Cleanup(func() { RegisterTransitionRecorder(nil) })

	ctx := context.Background()
	m := NewMachine(NewMemoryStorage(), nil, testLogger())

	conv := &Conversation{UserID: 1, Step: StepSelectingBank, Entry: &EntryDraft{}}
	require.NoError(t, m.Save(ctx, StepIdle, conv))

	conv.Step = StepSelectingCategory
	conv.Entry.BankID = 2
	require.NoError(t, m.Save(ctx, StepSelectingBank, conv))
	require.NoError(t, m.Reset(ctx, 1, StepSelectingCategory))

	assert.Equal(t, [][2]string{
		{"idle", "selecting_bank"},
		{"selecting_bank", "selecting_category"},
		{"selecting_category", "idle"},
	}, seen)
}

func TestMachine_WithLockRedis(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	m := NewMachine(NewMemoryStorage(), NewRedisLocker(client, testLogger()), testLogger())
	assertExclusiveLock(t, m)

	// the lock is released afterwards
	require.NoError(t, m.WithLock(context.Background(), 77, func(context.Context) error { return nil }))
}

func TestMachine_WithLockMemory(t *testing.T) {
	m := NewMachine(NewMemoryStorage(), NewMemoryLocker(), testLogger())
	assertExclusiveLock(t, m)
	require.NoError(t, m.WithLock(context.Background(), 77, func(context.Context) error { return nil }))
}

func TestMachine_WithLockOtherUsersProceed(t *testing.T) {
	m := NewMachine(NewMemoryStorage(), NewMemoryLocker(), testLogger())
	ctx := context.Background()

	err := m.WithLock(ctx, 1, func(ctx context.Context) error {
		return m.WithLock(ctx, 2, func(context.Context) error { return nil })
	})
	assert.NoError(t, err)

	err = m.WithLock(ctx, 1, func(ctx context.Context) error {
		return m.WithLock(ctx, 1, func(context.Context) error { return nil })
	})
	assert.ErrorIs(t, err, ErrStateLocked)
}

func TestRedisLocker_ExpiredLockIsNotReleasedByOldOwner(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	locker := NewRedisLocker(client, testLogger())

	unlockFirst, err := locker.Lock(ctx, 5)
	require.NoError(t, err)

	mr.FastForward(lockTTL + time.Second)

	unlockSecond, err := locker.Lock(ctx, 5)
	require.NoError(t, err)

	unlockFirst()

	_, err = locker.Lock(ctx, 5)
	assert.ErrorIs(t, err, ErrStateLocked, "stale owner must not release the new lock")

	unlockSecond()
	unlock, err := locker.Lock(ctx, 5)
	require.NoError(t, err)
	unlock()
}

func assertExclusiveLock(t *testing.T, m *Machine) {
	t.Helper()

	ctx := context.Background()
	userID := int64(77)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	start := make(chan struct{})

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errCh <- m.WithLock(ctx, userID, func(context.Context) error {
				time.Sleep(100 * time.Millisecond)
				return nil
			})
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)

	var success, locked int
	for err := range errCh {
		if err == nil {
			success++
			continue
		}

		if errors.Is(err, ErrStateLocked) {
			locked++
			continue
		}

		t.Fatalf("unexpected error: %v", err)
	}

	assert.Equal(t, 1, success)
	assert.Equal(t, 1, locked)
}

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}

	return client, cleanup
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
