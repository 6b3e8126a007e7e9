package cashback

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/cashback-bot/internal/domain"
	apperrors "github.com/Proton-105/cashback-bot/internal/errors"
	"github.com/Proton-105/cashback-bot/internal/i18n"
	"github.com/Proton-105/cashback-bot/internal/repository"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListCashbacks(ctx context.Context, userID int64) ([]domain.CashbackRow, error) {
	args := m.Called(ctx, userID)
	rows, _ := args.Get(0).([]domain.CashbackRow)
	return rows, args.Error(1)
}

func (m *mockStore) FindUser(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	categories, _ := args.Get(0).([]domain.Category)
	return categories, args.Error(1)
}

func (m *mockStore) AddCategory(ctx context.Context, name string) (domain.Category, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *mockStore) DeleteCategory(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestService(store Store) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, i18n.MustLoad("ru").Default(), log)
}

func TestService_MyReport(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	store.On("ListCashbacks", ctx, int64(1)).Return([]domain.CashbackRow{
		{Period: "2024-01", BankName: "ВТБ", CategoryName: "🛒 Супермаркеты", Percent: 5},
	}, nil)

	text, err := newTestService(store).MyReport(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Кешбеки на Январь:\n\n🏦 ВТБ\n------------------------\n🛒 Супермаркеты: 5%", text)
	store.AssertExpectations(t)
}

func TestService_SharedReport(t *testing.T) {
	ctx := context.Background()

	t.Run("no friend", func(t *testing.T) {
		store := new(mockStore)
		store.On("FindUser", ctx, int64(1)).Return(&domain.User{ID: 1}, nil)

		messages, err := newTestService(store).SharedReport(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"У вас нет друга."}, messages)
		store.AssertNotCalled(t, "ListCashbacks", mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		store := new(mockStore)
		store.On("FindUser", ctx, int64(1)).Return(nil, repository.ErrNotFound)

		messages, err := newTestService(store).SharedReport(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"У вас нет друга."}, messages)
		store.AssertNotCalled(t, "ListCashbacks", mock.Anything, mock.Anything)
	})

	t.Run("with friend", func(t *testing.T) {
		store := new(mockStore)
		friendID := int64(2)
		store.On("FindUser", ctx, int64(1)).Return(&domain.User{ID: 1, FriendID: &friendID}, nil)
		store.On("ListCashbacks", ctx, int64(1)).Return([]domain.CashbackRow(nil), nil)
		store.On("ListCashbacks", ctx, int64(2)).Return([]domain.CashbackRow{
			{Period: "2024-02", BankName: "Т-банк", CategoryName: "💊 Аптеки", Percent: 2.5},
		}, nil)

		messages, err := newTestService(store).SharedReport(ctx, 1)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "Ваш кешбек:\nКешбеков нет.", messages[0])
		assert.Equal(t, "Кешбек друга:\nКешбеки на Февраль:\n\n🏦 Т-банк\n------------------------\n💊 Аптеки: 2.5%", messages[1])
		store.AssertExpectations(t)
	})

	t.Run("store failure", func(t *testing.T) {
		store := new(mockStore)
		store.On("FindUser", ctx, int64(1)).Return(nil, errors.New("boom"))

		_, err := newTestService(store).SharedReport(ctx, 1)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, "E200", appErr.Code)
	})
}

func TestService_AddCategory(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name        string
		input       string
		setupMocks  func(ms *mockStore)
		expected    string
		expectedKey string
	}{
		{
			name:  "added",
			input: "  🚕 Такси ",
			setupMocks: func(ms *mockStore) {
				ms.On("AddCategory", ctx, "🚕 Такси").Return(domain.Category{ID: 13, Name: "🚕 Такси"}, nil)
			},
			expected: "Категория «🚕 Такси» добавлена (id 13).",
		},
		{
			name:        "empty name",
			input:       "   ",
			setupMocks:  func(*mockStore) {},
			expectedKey: apperrors.KeyValidation,
		},
		{
			name:  "duplicate",
			input: "💊 Аптеки",
			setupMocks: func(ms *mockStore) {
				ms.On("AddCategory", ctx, "💊 Аптеки").Return(domain.Category{}, repository.ErrAlreadyExists)
			},
			expectedKey: apperrors.KeyValidation,
		},
		{
			name:  "database failure",
			input: "x",
			setupMocks: func(ms *mockStore) {
				ms.On("AddCategory", ctx, "x").Return(domain.Category{}, errors.New("boom"))
			},
			expectedKey: apperrors.KeyDatabase,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(mockStore)
			tc.setupMocks(store)

			text, err := newTestService(store).AddCategory(ctx, tc.input)
			if tc.expectedKey != "" {
				appErr, ok := apperrors.As(err)
				require.True(t, ok)
				assert.Equal(t, tc.expectedKey, appErr.UserKey)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, text)
			store.AssertExpectations(t)
		})
	}
}

func TestService_DeleteCategory(t *testing.T) {
	ctx := context.Background()

	store := new(mockStore)
	store.On("DeleteCategory", ctx, int64(3)).Return(nil)
	store.On("DeleteCategory", ctx, int64(99)).Return(repository.ErrNotFound)
	svc := newTestService(store)

	text, err := svc.DeleteCategory(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Категория удалена.", text)

	_, err = svc.DeleteCategory(ctx, 99)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KeyValidation, appErr.UserKey)
}

func TestService_Categories(t *testing.T) {
	ctx := context.Background()

	store := new(mockStore)
	store.On("ListCategories", ctx).Return([]domain.Category{{ID: 1, Name: "🛍 Все покупки"}, {ID: 2, Name: "🐶 Животные"}}, nil)

	text, err := newTestService(store).Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Категории:\n1. 🛍 Все покупки\n2. 🐶 Животные", text)
}
