// Package config provides application configuration loading from the
// environment, with .env support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env              string
	HTTPAddr         string
	DatabaseURL      string
	RedisURL         string
	AsynqQueueName   string
	AsynqConcurrency int
	CORSAllowAll     bool
	CORSOrigins      []string
	CORSAllowCreds   bool
	MoveMaxAttempts  int
	MoveBaseDelay    time.Duration
	UndoWindow       time.Duration
	StageSeedPath    string
	RateLimitPerSec  float64
	RateLimitBurst   int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		CORSAllowAll:     corsAllowAll,
		CORSOrigins:      corsOrigins,
		CORSAllowCreds:   strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		MoveMaxAttempts:  mustInt(getEnv("MOVE_MAX_ATTEMPTS", "3")),
		MoveBaseDelay:    mustDuration(getEnv("MOVE_BASE_DELAY", "1s")),
		UndoWindow:       mustDuration(getEnv("UNDO_WINDOW", "5s")),
		StageSeedPath:    getEnv("STAGE_SEED_PATH", "config/stages.yaml"),
		RateLimitPerSec:  mustFloat(getEnv("RATE_LIMIT_PER_SEC", "25")),
		RateLimitBurst:   mustInt(getEnv("RATE_LIMIT_BURST", "50")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.MoveMaxAttempts < 1 {
		return nil, fmt.Errorf("MOVE_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.UndoWindow <= 0 {
		return nil, fmt.Errorf("UNDO_WINDOW must be positive")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

// Getters implementing the platform/config interfaces.

func (c *Config) GetDatabaseURL() string          { return c.DatabaseURL }
func (c *Config) GetRedisURL() string             { return c.RedisURL }
func (c *Config) GetAsynqQueueName() string       { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int        { return c.AsynqConcurrency }
func (c *Config) GetHTTPAddr() string             { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool           { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string        { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool         { return c.CORSAllowCreds }
func (c *Config) GetMoveMaxAttempts() int         { return c.MoveMaxAttempts }
func (c *Config) GetMoveBaseDelay() time.Duration { return c.MoveBaseDelay }
func (c *Config) GetUndoWindow() time.Duration    { return c.UndoWindow }
func (c *Config) GetStageSeedPath() string        { return c.StageSeedPath }

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func mustFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
