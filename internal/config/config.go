// Package config loads service configuration from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides, e.g. TP_SERVER_ADDR.
const EnvPrefix = "TP_"

// Config holds all service settings.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Store  StoreConfig  `koanf:"store"`
	Output OutputConfig `koanf:"output"`
	Fetch  FetchConfig  `koanf:"fetch"`
	LLM    LLMConfig    `koanf:"llm"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
	// RunTimeout bounds one async process run, parsed like "5m".
	RunTimeout string `koanf:"run_timeout"`
}

type StoreConfig struct {
	Path string `koanf:"path"`
}

type OutputConfig struct {
	Dir string `koanf:"dir"`
}

// FetchConfig controls document fetching and its retry policy.
type FetchConfig struct {
	Timeout      time.Duration `koanf:"timeout"`
	MaxAttempts  int           `koanf:"max_attempts"`
	InitialDelay time.Duration `koanf:"initial_delay"`
	MaxDelay     time.Duration `koanf:"max_delay"`
}

// LLMConfig configures the optional plan provider. With Enabled false or an
// empty APIKey the service synthesizes plans locally.
type LLMConfig struct {
	Enabled bool          `koanf:"enabled"`
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", RunTimeout: "5m"},
		Store:  StoreConfig{Path: "transform.db"},
		Output: OutputConfig{Dir: "output"},
		Fetch: FetchConfig{
			Timeout:      30 * time.Second,
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
	}
}

// Load reads configuration from path (optional, "" skips the file) and then
// applies TP_* environment overrides. Nested keys use underscores in the
// environment: TP_SERVER_ADDR, TP_LLM_API_KEY.
func Load(path string) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		// TP_SERVER_ADDR -> server.addr; only the first underscore splits,
		// so TP_LLM_API_KEY maps to llm.api_key.
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.Replace(s, "_", ".", 1)
	}), nil)
	if err != nil {
		return cfg, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
