package ratelimit

import (
	"slices"
	"time"

	"github.com/Proton-105/cashback-bot/pkg/config"
)

// Rules encapsulates configured rate limits and helper methods.
type Rules struct {
	config config.RateLimitConfig
}

// NewRules constructs rate limiting rules from configuration settings.
func NewRules(cfg config.RateLimitConfig) *Rules {
	return &Rules{config: cfg}
}

// Enabled reports whether updates are throttled at all.
func (r *Rules) Enabled() bool {
	return r != nil && r.config.Enabled && r.config.Limit > 0 && r.config.Window > 0
}

// IsWhitelisted returns true if the userID bypasses rate limits.
func (r *Rules) IsWhitelisted(userID int64) bool {
	return slices.Contains(r.config.Whitelist, userID)
}

// PerUser returns the per-user limit and its window.
func (r *Rules) PerUser() (int, time.Duration) {
	return r.config.Limit, r.config.Window
}
