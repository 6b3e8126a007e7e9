package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashback-bot/pkg/logger"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) RegisterUser(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Known(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Remember(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

func TestRegisterWithoutCache(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	store.On("RegisterUser", ctx, int64(5)).Return(nil).Once()

	svc := NewService(store, nil, logger.Discard())
	require.NoError(t, svc.Register(ctx, &telebot.User{ID: 5}))
	store.AssertExpectations(t)
}

func TestRegisterSkipsKnownUsers(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	cache := new(mockCache)
	cache.On("Known", ctx, int64(5)).Return(true, nil).Once()

	svc := NewService(store, cache, logger.Discard())
	require.NoError(t, svc.Register(ctx, &telebot.User{ID: 5}))

	store.AssertNotCalled(t, "RegisterUser", mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestRegisterRemembersNewUsers(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	cache := new(mockCache)
	cache.On("Known", ctx, int64(5)).Return(false, errors.New("redis down")).Once()
	store.On("RegisterUser", ctx, int64(5)).Return(nil).Once()
	cache.On("Remember", ctx, int64(5)).Return(nil).Once()

	svc := NewService(store, cache, logger.Discard())
	require.NoError(t, svc.Register(ctx, &telebot.User{ID: 5}))

	store.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestRegisterStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	cache := new(mockCache)
	cache.On("Known", ctx, int64(5)).Return(false, nil).Once()
	store.On("RegisterUser", ctx, int64(5)).Return(errors.New("db down")).Once()

	svc := NewService(store, cache, logger.Discard())
	err := svc.Register(ctx, &telebot.User{ID: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register user")
	cache.AssertNotCalled(t, "Remember", mock.Anything, mock.Anything)
}

func TestRegisterNilUser(t *testing.T) {
	svc := NewService(new(mockStore), nil, logger.Discard())
	assert.Error(t, svc.Register(context.Background(), nil))
}
