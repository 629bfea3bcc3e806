// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	API      APIConfig      `mapstructure:"api"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Matching MatchingConfig `mapstructure:"matching"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// APIConfig describes the upstream marketplace REST API.
type APIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
	AuthToken string `mapstructure:"auth_token"`
}

func (a APIConfig) TimeoutDuration() time.Duration {
	return time.Duration(a.Timeout) * time.Millisecond
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig controls session-scoped state (role selection).
type SessionConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// MatchingConfig controls the recommendation read cache.
type MatchingConfig struct {
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

func (m MatchingConfig) CacheTTL() time.Duration {
	return time.Duration(m.CacheTTLSeconds) * time.Second
}

// ServerConfig describes the facade HTTP listener.
type ServerConfig struct {
	Address     string `mapstructure:"address"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func validateConfig(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %d", cfg.API.Timeout)
	}
	if cfg.Session.TTLMinutes <= 0 {
		return fmt.Errorf("session.ttl_minutes must be positive, got %d", cfg.Session.TTLMinutes)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "engagement-coordinator"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 10000
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = 12 * 60
	}
	if cfg.Matching.CacheTTLSeconds == 0 {
		cfg.Matching.CacheTTLSeconds = 60
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 9100
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}
