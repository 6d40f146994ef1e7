package config

import (
	"time"

	"github.com/frutalia/ventabot/pkg/redis"
)

// Config holds runtime configuration for the ventabot service.
//
// Session timing (TTL, warning, context reset) is fixed policy and lives as
// constants in internal/session, not here.
type Config struct {
	AppEnv string `mapstructure:"-"`

	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	Log     LogConfig     `mapstructure:"log"`
	Sentry  SentryConfig  `mapstructure:"sentry"`
	Twilio  TwilioConfig  `mapstructure:"twilio" validate:"required"`
	Backend BackendConfig `mapstructure:"backend" validate:"required"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// ServerConfig configures the webhook listener and the ops endpoint.
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	OpsPort         string        `mapstructure:"ops_port" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
}

// TwilioConfig carries the WhatsApp sender credentials.
type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid" validate:"required"`
	AuthToken  string `mapstructure:"auth_token" validate:"required"`
	From       string `mapstructure:"from" validate:"required"`
}

// BackendConfig points at the commerce API (catalog, customers, orders).
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLMConfig points at the OpenAI-compatible extraction service. When
// disabled the bot runs on the keyword extractor alone.
type LLMConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url" validate:"required_if=Enabled true"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RedisConfig enables the Redis store backends. When disabled, all per-user
// stores are in-memory and state does not survive a restart.
type RedisConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	Client  redis.Config `mapstructure:"client"`
}
