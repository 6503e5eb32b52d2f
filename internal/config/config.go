package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"PORT"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
		TTL      string `yaml:"ttl" env:"REDIS_TTL"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"POSTGRES_URL"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path" env:"SQLITE_PATH"`
	} `yaml:"sqlite"`
	Quiz struct {
		TTL string `yaml:"ttl" env:"QUIZ_TTL"`
	} `yaml:"quiz"`
	Resolver struct {
		// LegacyCodeLength caps type codes built when results carry no usable axis alphabet.
		LegacyCodeLength int `yaml:"legacy_code_length" env:"RESOLVER_LEGACY_CODE_LENGTH"`
	} `yaml:"resolver"`
	Telemetry struct {
		Endpoint    string `yaml:"endpoint" env:"OTEL_ENDPOINT"`
		ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
	} `yaml:"telemetry"`
}

// Load reads YAML config from path and applies QUIZ_* environment overrides.
// A missing file is not an error; environment and defaults still apply.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	case !os.IsNotExist(err):
		return cfg, err
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "QUIZ_"}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
