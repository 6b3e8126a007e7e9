// Package ratelimit throttles chat updates per user.
package ratelimit

import (
	"context"
	"strconv"
	"time"
)

// Result captures the outcome of a rate-limit evaluation.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the whole seconds until the window resets, at least one.
func (r *Result) RetryAfter(now time.Time) int {
	if r == nil {
		return 1
	}
	secs := int(r.ResetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Limiter describes a rate-limiting strategy interface.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// UserKey returns the limiter key of a chat user.
func UserKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}
