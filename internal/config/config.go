// Package config loads the client configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Token store backends
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds everything the client needs at startup.
type Config struct {
	APIBaseURL string `env:"PETPAL_API_BASE_URL"`
	APIService string `env:"PETPAL_API_SERVICE" envDefault:"api-gateway"`

	ConsulAddr  string `env:"CONSUL_HTTP_ADDR"`
	ConsulToken string `env:"CONSUL_HTTP_TOKEN"`

	ChatAPIKey string `env:"PETPAL_CHAT_API_KEY"`
	ChatURL    string `env:"PETPAL_CHAT_URL" envDefault:"nats://localhost:4222"`

	TokenStore string `env:"PETPAL_TOKEN_STORE" envDefault:"file"`
	TokenFile  string `env:"PETPAL_TOKEN_FILE"`
	TokenKey   string `env:"PETPAL_TOKEN_KEY" envDefault:"petpal:token"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.TokenStore = strings.ToLower(strings.TrimSpace(cfg.TokenStore))
	return &cfg, nil
}

// Validate reports misconfiguration that would make every request fail.
// The base URL may come from consul discovery instead of the environment.
func (c *Config) Validate() error {
	var missing []string
	if c.APIBaseURL == "" && c.ConsulAddr == "" {
		missing = append(missing, "PETPAL_API_BASE_URL (or CONSUL_HTTP_ADDR)")
	}
	switch c.TokenStore {
	case StoreFile, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unknown PETPAL_TOKEN_STORE %q (want file, redis or memory)", c.TokenStore)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateChat reports whether the chat service can be reached with this
// configuration.
func (c *Config) ValidateChat() error {
	var missing []string
	if c.ChatAPIKey == "" {
		missing = append(missing, "PETPAL_CHAT_API_KEY")
	}
	if c.ChatURL == "" {
		missing = append(missing, "PETPAL_CHAT_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
