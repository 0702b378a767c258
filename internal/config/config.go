package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the API server.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	EventStore EventStoreConfig
	TagStore   TagStoreConfig
}

type ServerConfig struct {
	Port            int
	Env             string
	RateLimitPerMin int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL           string
	GroupCacheTTL time.Duration
}

type EventStoreConfig struct {
	BaseURL string
	Timeout time.Duration
}

type TagStoreConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("SENTRY_PORT", 8080),
			Env:             envString("SENTRY_ENV", "development"),
			RateLimitPerMin: envInt("SENTRY_RATE_LIMIT_PER_MIN", 60),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:           os.Getenv("REDIS_URL"),
			GroupCacheTTL: envDuration("SENTRY_GROUP_CACHE_TTL", time.Hour),
		},
		EventStore: EventStoreConfig{
			BaseURL: os.Getenv("EVENTSTORE_BASE_URL"),
			Timeout: envDuration("EVENTSTORE_TIMEOUT", 30*time.Second),
		},
		TagStore: TagStoreConfig{
			BaseURL: os.Getenv("TAGSTORE_BASE_URL"),
			Timeout: envDuration("TAGSTORE_TIMEOUT", 10*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.EventStore.BaseURL == "" {
		return fmt.Errorf("EVENTSTORE_BASE_URL is required")
	}
	if !isHTTPURL(c.EventStore.BaseURL) {
		return fmt.Errorf("EVENTSTORE_BASE_URL must start with http:// or https://, got %q", c.EventStore.BaseURL)
	}

	if c.TagStore.BaseURL == "" {
		return fmt.Errorf("TAGSTORE_BASE_URL is required")
	}
	if !isHTTPURL(c.TagStore.BaseURL) {
		return fmt.Errorf("TAGSTORE_BASE_URL must start with http:// or https://, got %q", c.TagStore.BaseURL)
	}

	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
