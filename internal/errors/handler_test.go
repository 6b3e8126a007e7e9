package errors

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Proton-105/cashback-bot/internal/i18n"
	"github.com/Proton-105/cashback-bot/pkg/logger"
)

func TestHandleTranslatesByKind(t *testing.T) {
	tr := i18n.MustLoad("ru").Default()
	h := NewHandler(logger.Discard(), tr, false)
	ctx := context.Background()

	tests := []struct {
		name          string
		err           error
		wantKey       string
		wantRetryable bool
	}{
		{name: "validation", err: NewValidationError("bad"), wantKey: KeyValidation},
		{name: "database", err: NewDatabaseError("insert", stderrors.New("boom")), wantKey: KeyDatabase, wantRetryable: true},
		{name: "state", err: NewStateError("busy", nil), wantKey: KeyState, wantRetryable: true},
		{name: "rate limit", err: NewRateLimitError(3), wantKey: KeyRateLimit},
		{name: "unknown", err: stderrors.New("plain"), wantKey: KeyGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, retryable := h.Handle(ctx, tt.err)
			assert.Equal(t, tr.T(tt.wantKey), msg)
			assert.Equal(t, tt.wantRetryable, retryable)
		})
	}
}

func TestHandleFindsWrappedAppError(t *testing.T) {
	h := NewHandler(logger.Discard(), nil, false)

	wrapped := stderrors.Join(stderrors.New("outer"), NewStateError("busy", nil))
	msg, retryable := h.Handle(context.Background(), wrapped)

	assert.Equal(t, KeyState, msg, "without a translator the key is returned")
	assert.True(t, retryable)
}

func TestHandleNilError(t *testing.T) {
	h := NewHandler(logger.Discard(), nil, false)
	msg, retryable := h.Handle(context.Background(), nil)
	assert.Empty(t, msg)
	assert.False(t, retryable)
}

func TestHandleLogsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	h := NewHandler(log, nil, false)

	ctx := logger.WithCorrelationID(context.Background(), "req-1")
	h.Handle(ctx, NewDatabaseError("select", stderrors.New("timeout")))

	out := buf.String()
	assert.Contains(t, out, `"correlation_id":"req-1"`)
	assert.Contains(t, out, `"code":"E200"`)
	assert.Contains(t, out, `"cause":"timeout"`)
}

func TestDatabaseErrorUnwraps(t *testing.T) {
	cause := stderrors.New("conn reset")
	err := NewDatabaseError("insert", cause)

	assert.ErrorIs(t, err, cause)
	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, SeverityHigh, appErr.Severity)
}
