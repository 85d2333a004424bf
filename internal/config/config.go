// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Durations are configured in milliseconds and exposed through helpers.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite3"
)

// Counter backends.
const (
	CounterMemory = "memory"
	CounterSQL    = "sql"
	CounterRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// CORSOrigin is sent as Access-Control-Allow-Origin.
	CORSOrigin string `koanf:"cors_origin"`

	// StoreDriver selects where leads and events live: memory, postgres or sqlite3.
	StoreDriver string `koanf:"store_driver"`
	StoreDSN    string `koanf:"store_dsn"`

	// CounterBackend selects the durable rate counter: memory (none), sql or redis.
	CounterBackend   string `koanf:"counter_backend"`
	RedisAddr        string `koanf:"redis_addr"`
	RedisPassword    string `koanf:"redis_password"`
	RedisDB          int    `koanf:"redis_db"`
	RedisRetentionMS int    `koanf:"redis_retention_ms"`
	DurableTimeoutMS int    `koanf:"durable_timeout_ms"`
	SweepIntervalMS  int    `koanf:"sweep_interval_ms"`

	// RateWindowMS is the per-client window shared by every endpoint limit.
	RateWindowMS    int `koanf:"rate_window_ms"`
	ChatLimit       int `koanf:"chat_limit"`
	LeadsLimit      int `koanf:"leads_limit"`
	EventsLimit     int `koanf:"events_limit"`
	StatsLimit      int `koanf:"stats_limit"`
	EmailDailyLimit int `koanf:"email_daily_limit"`

	// HoneypotField is the hidden form field that flags bots.
	HoneypotField string `koanf:"honeypot_field"`

	// ScoreWeights overrides scoring category weights by name.
	ScoreWeights map[string]int `koanf:"score_weights"`

	LLMBaseURL      string  `koanf:"llm_base_url"`
	LLMAPIKey       string  `koanf:"llm_api_key"`
	LLMModel        string  `koanf:"llm_model"`
	LLMMaxTokens    int     `koanf:"llm_max_tokens"`
	LLMTemperature  float64 `koanf:"llm_temperature"`
	LLMTimeoutMS    int     `koanf:"llm_timeout_ms"`
	LLMSystemPrompt string  `koanf:"llm_system_prompt"`

	// NotifyWebhookURL enables Slack-compatible lead announcements when set.
	NotifyWebhookURL   string  `koanf:"notify_webhook_url"`
	NotifyDashboardURL string  `koanf:"notify_dashboard_url"`
	NotifyQueueSize    int     `koanf:"notify_queue_size"`
	NotifyWorkers      int     `koanf:"notify_workers"`
	NotifyRatePerSec   float64 `koanf:"notify_rate_per_sec"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:   "info",
		LogFormat:  "text",
		Addr:       ":9080",
		CORSOrigin: "*",

		StoreDriver:      StoreMemory,
		CounterBackend:   CounterMemory,
		RedisAddr:        "localhost:6379",
		RedisRetentionMS: 25 * 60 * 60 * 1000,
		DurableTimeoutMS: 2000,
		SweepIntervalMS:  60_000,

		RateWindowMS:    60_000,
		ChatLimit:       10,
		LeadsLimit:      5,
		EventsLimit:     30,
		StatsLimit:      20,
		EmailDailyLimit: 3,

		HoneypotField: "website",
		ScoreWeights:  map[string]int{},

		LLMModel:       "gpt-4o",
		LLMMaxTokens:   400,
		LLMTemperature: 0.6,
		LLMTimeoutMS:   30_000,

		NotifyQueueSize:  1024,
		NotifyWorkers:    2,
		NotifyRatePerSec: 1,
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.StoreDriver {
	case StoreMemory, StorePostgres, StoreSQLite:
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	switch c.CounterBackend {
	case CounterMemory, CounterRedis:
	case CounterSQL:
		if c.StoreDriver == StoreMemory {
			return fmt.Errorf("%w: counter_backend sql needs a sql store_driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown counter_backend %q", ErrInvalidConfig, c.CounterBackend)
	}
	if c.StoreDriver != StoreMemory && strings.TrimSpace(c.StoreDSN) == "" {
		return fmt.Errorf("%w: store_dsn is required for %s", ErrInvalidConfig, c.StoreDriver)
	}

	positive := map[string]int{
		"rate_window_ms":     c.RateWindowMS,
		"chat_limit":         c.ChatLimit,
		"leads_limit":        c.LeadsLimit,
		"events_limit":       c.EventsLimit,
		"stats_limit":        c.StatsLimit,
		"email_daily_limit":  c.EmailDailyLimit,
		"durable_timeout_ms": c.DurableTimeoutMS,
		"sweep_interval_ms":  c.SweepIntervalMS,
		"notify_queue_size":  c.NotifyQueueSize,
		"notify_workers":     c.NotifyWorkers,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, name, v)
		}
	}
	for name, w := range c.ScoreWeights {
		if w <= 0 {
			return fmt.Errorf("%w: score weight %q must be positive", ErrInvalidConfig, name)
		}
	}
	return nil
}

// RateWindow returns the per-client rate window.
func (c *Config) RateWindow() time.Duration { return ms(c.RateWindowMS) }

// DurableTimeout returns the bound on one durable counter round trip.
func (c *Config) DurableTimeout() time.Duration { return ms(c.DurableTimeoutMS) }

// SweepInterval returns how often the memory counter table is swept.
func (c *Config) SweepInterval() time.Duration { return ms(c.SweepIntervalMS) }

// RedisRetention returns the TTL applied to redis counter keys.
func (c *Config) RedisRetention() time.Duration { return ms(c.RedisRetentionMS) }

// LLMTimeout returns the completion timeout.
func (c *Config) LLMTimeout() time.Duration { return ms(c.LLMTimeoutMS) }

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
