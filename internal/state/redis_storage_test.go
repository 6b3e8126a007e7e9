package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStorage_SetAndGet(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), time.Hour)

	ctx := context.Background()
	conv := &Conversation{
		UserID: 123,
		Step:   StepSelectingPeriod,
		Entry: &EntryDraft{
			BankID:     1,
			CategoryID: 4,
			Percent:    7.5,
			Candidates: []string{"2024-05", "2024-06"},
		},
	}

	require.NoError(t, storage.Set(ctx, conv))
	assert.False(t, conv.UpdatedAt.IsZero())

	result, err := storage.Get(ctx, conv.UserID)
	require.NoError(t, err)
	assert.Equal(t, conv.Step, result.Step)
	assert.Equal(t, conv.Entry, result.Entry)
	assert.Nil(t, result.Deletion)

	ttl, err := client.TTL(ctx, redisUserStateKey(conv.UserID)).Result()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)
}

func TestRedisStorage_GetNotFound(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), time.Hour)

	conv, err := storage.Get(context.Background(), 999)
	assert.Nil(t, conv)
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestRedisStorage_ClearAndAll(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	t.Cleanup(cleanup)

	storage := NewRedisStorage(client, testLogger(), time.Hour)
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, &Conversation{UserID: 1, Step: StepAwaitingFriendID}))
	require.NoError(t, storage.Set(ctx, &Conversation{UserID: 2, Step: StepChoosingEntries, Deletion: &DeletionDraft{Selected: []int64{3}}}))

	all, err := storage.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, storage.Clear(ctx, 1))
	require.NoError(t, storage.Clear(ctx, 1), "clearing twice is harmless")

	_, err = storage.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrStateNotFound)

	all, err = storage.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []int64{3}, all[0].Deletion.Selected)
}

func TestMemoryStorage_IsolatesCallers(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	conv := &Conversation{UserID: 9, Step: StepChoosingEntries, Deletion: &DeletionDraft{}}
	require.NoError(t, storage.Set(ctx, conv))

	conv.Deletion.Toggle(5)

	stored, err := storage.Get(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, stored.Deletion.Selected)

	stored.Deletion.Toggle(6)
	again, err := storage.Get(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, again.Deletion.Selected)
}

func TestCleaner_DropsExpiredConversations(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	storage.now = func() time.Time { return base }
	require.NoError(t, storage.Set(ctx, &Conversation{UserID: 1, Step: StepAwaitingFriendID}))

	storage.now = func() time.Time { return base.Add(50 * time.Minute) }
	require.NoError(t, storage.Set(ctx, &Conversation{UserID: 2, Step: StepConfirmingAll}))

	cleaner := NewCleaner(storage, testLogger(), time.Hour, time.Minute)
	cleaner.now = func() time.Time { return base.Add(90 * time.Minute) }

	assert.Equal(t, 1, cleaner.Cleanup(ctx))

	_, err := storage.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrStateNotFound)
	_, err = storage.Get(ctx, 2)
	assert.NoError(t, err)
}
