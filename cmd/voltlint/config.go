package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all voltlint configuration.
// Priority: env vars (VOLTLINT_*) > config file > defaults.
type Config struct {
	DBPath        string `koanf:"db_path"`
	LogLevel      string `koanf:"log_level"`
	DebounceMs    int    `koanf:"debounce_ms"`
	CacheTTLSecs  int    `koanf:"cache_ttl_s"`
	SweepSchedule string `koanf:"sweep_schedule"`
	RulesFile     string `koanf:"rules_file"`
}

func defaultConfig() *Config {
	return &Config{
		DBPath:        filepath.Join(voltlintDir(), "voltlint.db"),
		LogLevel:      "info",
		DebounceMs:    500,
		CacheTTLSecs:  5,
		SweepSchedule: "0 * * * *",
	}
}

func voltlintDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".voltlint"
	}
	return filepath.Join(home, ".voltlint")
}

// loadConfig reads configuration from the given YAML file, then overlays
// environment variable overrides (VOLTLINT_*).
func loadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := defaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// VOLTLINT_DB_PATH -> db_path, etc.
	if err := k.Load(env.Provider("VOLTLINT_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "VOLTLINT_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.DebounceMs <= 0 {
		return fmt.Errorf("debounce_ms must be positive")
	}
	if c.CacheTTLSecs <= 0 {
		return fmt.Errorf("cache_ttl_s must be positive")
	}
	return nil
}
