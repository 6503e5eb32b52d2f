package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
server:
  port: "9090"
redis:
  addr: "localhost:6379"
  ttl: "15m"
quiz:
  ttl: "1h"
resolver:
  legacy_code_length: 4
telemetry:
  service_name: "outcome-quiz-service"
`

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUIZ_REDIS_ADDR", "redis:6380")
	t.Setenv("QUIZ_SQLITE_PATH", "/tmp/quiz.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port from yaml, got %q", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "redis:6380" {
		t.Fatalf("expected env override for redis addr, got %q", cfg.Redis.Addr)
	}
	if cfg.SQLite.Path != "/tmp/quiz.db" {
		t.Fatalf("expected sqlite path from env, got %q", cfg.SQLite.Path)
	}
	if cfg.Resolver.LegacyCodeLength != 4 {
		t.Fatalf("expected legacy code length 4, got %d", cfg.Resolver.LegacyCodeLength)
	}
	if got := TTLDuration(cfg.Redis.TTL, time.Minute); got != 15*time.Minute {
		t.Fatalf("expected 15m ttl, got %v", got)
	}
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("QUIZ_POSTGRES_URL", "postgres://quiz@localhost/quizdb")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Postgres.URL != "postgres://quiz@localhost/quizdb" {
		t.Fatalf("expected postgres url from env, got %q", cfg.Postgres.URL)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("not-a-duration", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on parse error, got %v", got)
	}
}
