package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/cashback-bot/internal/bot/keyboard"
	"github.com/Proton-105/cashback-bot/internal/conversation"
	apperrors "github.com/Proton-105/cashback-bot/internal/errors"
	"github.com/Proton-105/cashback-bot/internal/idempotency"
	"github.com/Proton-105/cashback-bot/internal/ratelimit"
	"github.com/Proton-105/cashback-bot/pkg/config"
	"github.com/Proton-105/cashback-bot/pkg/logger"
)

// fakeContext implements the parts of telebot.Context the middlewares use.
type fakeContext struct {
	telebot.Context

	sender   *telebot.User
	message  *telebot.Message
	callback *telebot.Callback

	mu    sync.Mutex
	store map[string]interface{}
}

func newMessageContext(userID int64, msgID int, text string) *fakeContext {
	return &fakeContext{
		sender:  &telebot.User{ID: userID},
		message: &telebot.Message{ID: msgID, Text: text, Chat: &telebot.Chat{ID: userID}},
	}
}

func (f *fakeContext) Sender() *telebot.User       { return f.sender }
func (f *fakeContext) Message() *telebot.Message   { return f.message }
func (f *fakeContext) Callback() *telebot.Callback { return f.callback }

func (f *fakeContext) Text() string {
	if f.message == nil {
		return ""
	}
	return f.message.Text
}

func (f *fakeContext) Set(key string, value interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.store == nil {
		f.store = make(map[string]interface{})
	}
	f.store[key] = value
}

func (f *fakeContext) Get(key string) interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[key]
}

func TestCommandName(t *testing.T) {
	data, err := keyboard.EncodeAction(conversation.ChooseBank(3))
	require.NoError(t, err)

	tests := []struct {
		name string
		ctx  telebot.Context
		want string
	}{
		{name: "command", ctx: newMessageContext(1, 1, "/add"), want: "/add"},
		{name: "command with mention and args", ctx: newMessageContext(1, 1, "/addcategory@cashback_bot Кафе"), want: "/addcategory"},
		{name: "text", ctx: newMessageContext(1, 1, "12345"), want: "text"},
		{name: "empty", ctx: newMessageContext(1, 1, ""), want: "unknown"},
		{name: "callback", ctx: &fakeContext{callback: &telebot.Callback{Data: data}}, want: "cb:" + keyboard.UniqueBank},
		{name: "nil", ctx: nil, want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CommandName(tt.ctx))
		})
	}
}

func TestUpdateKey(t *testing.T) {
	a := UpdateKey(newMessageContext(1, 10, "hi"))
	b := UpdateKey(newMessageContext(1, 11, "hi"))
	again := UpdateKey(newMessageContext(1, 10, "hi"))

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)

	cb := UpdateKey(&fakeContext{callback: &telebot.Callback{ID: "q1"}})
	assert.NotEmpty(t, cb)
	assert.NotEqual(t, a, cb)

	assert.Empty(t, UpdateKey(&fakeContext{}))
}

func TestIdempotencySkipsRepeatedUpdates(t *testing.T) {
	manager := idempotency.NewManager(idempotency.NewMemoryStore(), logger.Discard())
	mw := Idempotency(manager, time.Minute, logger.Discard())

	calls := 0
	h := mw(func(telebot.Context) error {
		calls++
		return nil
	})

	require.NoError(t, h(newMessageContext(1, 10, "/add")))
	require.NoError(t, h(newMessageContext(1, 10, "/add")))
	require.NoError(t, h(newMessageContext(1, 11, "/add")))

	assert.Equal(t, 2, calls)
}

func TestIdempotencyRetriesFailedUpdates(t *testing.T) {
	manager := idempotency.NewManager(idempotency.NewMemoryStore(), logger.Discard())
	mw := Idempotency(manager, time.Minute, logger.Discard())

	errBoom := errors.New("boom")
	calls := 0
	h := mw(func(telebot.Context) error {
		calls++
		if calls == 1 {
			return errBoom
		}
		return nil
	})

	assert.ErrorIs(t, h(newMessageContext(1, 10, "/add")), errBoom)
	assert.NoError(t, h(newMessageContext(1, 10, "/add")))
	assert.Equal(t, 2, calls)
}

func TestIdempotencyDisabled(t *testing.T) {
	mw := Idempotency(nil, time.Minute, logger.Discard())

	calls := 0
	h := mw(func(telebot.Context) error {
		calls++
		return nil
	})
	require.NoError(t, h(newMessageContext(1, 10, "x")))
	require.NoError(t, h(newMessageContext(1, 10, "x")))
	assert.Equal(t, 2, calls)
}

func TestRateLimitMiddleware(t *testing.T) {
	rules := ratelimit.NewRules(config.RateLimitConfig{
		Enabled:   true,
		Limit:     2,
		Window:    time.Minute,
		Whitelist: []int64{99},
	})
	mw := NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(logger.Discard()), rules, logger.Discard())

	calls := 0
	h := mw.Handle(func(telebot.Context) error {
		calls++
		return nil
	})

	require.NoError(t, h(newMessageContext(1, 1, "a")))
	require.NoError(t, h(newMessageContext(1, 2, "b")))

	err := h(newMessageContext(1, 3, "c"))
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KeyRateLimit, appErr.UserKey)

	require.NoError(t, h(newMessageContext(2, 4, "other user")))
	for i := 0; i < 5; i++ {
		require.NoError(t, h(newMessageContext(99, 10+i, "whitelisted")))
	}

	assert.Equal(t, 8, calls)
}

func TestHTTPLoggingMiddlewareRecordsStatus(t *testing.T) {
	h := New(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil).WithContext(context.Background())
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
