package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/board")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.MoveMaxAttempts != 3 || cfg.MoveBaseDelay != time.Second {
		t.Errorf("retry defaults: attempts=%d delay=%v", cfg.MoveMaxAttempts, cfg.MoveBaseDelay)
	}
	if cfg.UndoWindow != 5*time.Second {
		t.Errorf("UndoWindow = %v, want 5s", cfg.UndoWindow)
	}
	if cfg.AsynqQueueName != "default" || cfg.AsynqConcurrency != 10 {
		t.Errorf("asynq defaults: queue=%q concurrency=%d", cfg.AsynqQueueName, cfg.AsynqConcurrency)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadRequiresRedisURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/board")
	t.Setenv("REDIS_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without REDIS_URL")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("MOVE_MAX_ATTEMPTS", "5")
	t.Setenv("MOVE_BASE_DELAY", "250ms")
	t.Setenv("UNDO_WINDOW", "10s")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MoveMaxAttempts != 5 || cfg.MoveBaseDelay != 250*time.Millisecond {
		t.Errorf("retry overrides: attempts=%d delay=%v", cfg.MoveMaxAttempts, cfg.MoveBaseDelay)
	}
	if cfg.UndoWindow != 10*time.Second {
		t.Errorf("UndoWindow = %v", cfg.UndoWindow)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadWildcardOriginsForceAllowAll(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.CORSAllowAll {
		t.Error("wildcard origin did not enable allow-all")
	}
}

func TestLoadRejectsWildcardWithCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for wildcard origins with credentials")
	}
}

func TestLoadRejectsInvalidUndoWindow(t *testing.T) {
	setRequired(t)
	t.Setenv("UNDO_WINDOW", "banana")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable undo window")
	}
}
