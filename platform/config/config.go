// Package config defines the narrow configuration interfaces consumed by the
// platform layer. Each interface exposes only the settings its consumer
// needs; internal/config.Config implements all of them.
package config

import "time"

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// RedisConfig provides Redis connection settings for the undo store and the
// background task queue.
type RedisConfig interface {
	GetRedisURL() string
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// EngineConfig provides tuning knobs for the board transition engine.
type EngineConfig interface {
	GetMoveMaxAttempts() int
	GetMoveBaseDelay() time.Duration
	GetUndoWindow() time.Duration
	GetStageSeedPath() string
}
