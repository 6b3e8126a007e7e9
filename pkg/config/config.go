package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds runtime configuration for the cashback bot.
type Config struct {
	AppEnv      string            `mapstructure:"app_env"`
	App         AppConfig         `mapstructure:"app"`
	Bot         BotConfig         `mapstructure:"bot"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	State       StateConfig       `mapstructure:"state"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Sentry      SentryConfig      `mapstructure:"sentry"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Shutdown    ShutdownConfig    `mapstructure:"shutdown"`
}

// AppConfig describes application wide settings.
type AppConfig struct {
	Name     string `mapstructure:"name" validate:"required"`
	Timezone string `mapstructure:"timezone" validate:"required"`
	Language string `mapstructure:"language" validate:"required,oneof=ru en"`
}

// Location resolves the configured timezone.
func (c AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token          string        `mapstructure:"token" validate:"required"`
	Mode           string        `mapstructure:"mode" validate:"required,oneof=polling webhook"`
	PollerTimeout  time.Duration `mapstructure:"poller_timeout" validate:"required"`
	WebhookListen  string        `mapstructure:"webhook_listen" validate:"required_if=Mode webhook"`
	WebhookURL     string        `mapstructure:"webhook_url" validate:"required_if=Mode webhook"`
	AdminIDs       []int64       `mapstructure:"admin_ids"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout" validate:"required"`
}

// IsAdmin reports whether the user may manage reference data.
func (c BotConfig) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// DatabaseConfig selects the SQL engine and its connection settings.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	Host         string `mapstructure:"host" validate:"required_if=Driver postgres"`
	Port         int    `mapstructure:"port" validate:"required_if=Driver postgres"`
	User         string `mapstructure:"user" validate:"required_if=Driver postgres"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name" validate:"required_if=Driver postgres"`
	SSLMode      string `mapstructure:"sslmode"`
	Path         string `mapstructure:"path" validate:"required_if=Driver sqlite"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// DSN returns the driver specific connection string.
func (c DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}
	q := u.Query()
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisConfig configures the optional Redis connection.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db" validate:"gte=0"`
	PoolSize     int           `mapstructure:"pool_size" validate:"gte=0"`
	MinIdleConns int           `mapstructure:"min_idle_conns" validate:"gte=0"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// StateConfig configures conversation state storage.
type StateConfig struct {
	Backend         string        `mapstructure:"backend" validate:"required,oneof=memory redis"`
	TTL             time.Duration `mapstructure:"ttl" validate:"required"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"required"`
}

// LoggerConfig configures structured logging.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"required,oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// MetricsConfig configures the metrics and health HTTP server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true"`
}

// RateLimitConfig configures per-user request limits.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Limit     int           `mapstructure:"limit" validate:"required_if=Enabled true,gte=0"`
	Window    time.Duration `mapstructure:"window" validate:"required_if=Enabled true"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

// IdempotencyConfig configures duplicate update suppression.
type IdempotencyConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" validate:"required_if=Enabled true"`
}

// ShutdownConfig configures graceful shutdown.
type ShutdownConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`
}
