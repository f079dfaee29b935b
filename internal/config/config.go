// Package config loads and manages obsagent configuration.
// Configuration source priority (highest to lowest):
// 1. OBSAGENT_* and generic LLM_* environment variables, which override
//    the file for the active provider
// 2. Config file path specified via --config flag
// 3. ~/.config/obsagent/config.yaml
//
// The ambient vendor keys (OPENAI_API_KEY, ANTHROPIC_API_KEY) are
// gap-fillers, not overrides: they apply only when neither the file nor
// LLM_API_KEY set a key for that provider.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds configuration for a single model provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	// EmbeddingModel is only used by OpenAI-compatible providers.
	EmbeddingModel string `yaml:"embedding_model"`
}

// CacheConfig holds semantic cache settings.
type CacheConfig struct {
	// Threshold is the minimum similarity score to serve a cached answer.
	// 0 uses the built-in default (0.85).
	Threshold float64 `yaml:"threshold"`
}

// StorageConfig selects the durable session store.
type StorageConfig struct {
	// Driver: "sqlite" (default) | "postgres"
	Driver string `yaml:"driver"`

	// SQLitePath overrides the default database file location.
	SQLitePath string `yaml:"sqlite_path"`

	// PostgresURL is required when driver is "postgres".
	PostgresURL string `yaml:"postgres_url"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	// Listen address, e.g. ":8787".
	Listen string `yaml:"listen"`

	// MetricsNamespace prefixes all Prometheus metric names.
	MetricsNamespace string `yaml:"metrics_namespace"`
}

// Config is the complete configuration structure for obsagent.
type Config struct {
	// Provider is the active provider name ("openai" or "anthropic").
	Provider string `yaml:"provider"`

	// Providers holds per-provider configuration.
	Providers map[string]*ProviderConfig `yaml:"providers"`

	Cache   CacheConfig   `yaml:"cache"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:  "openai",
		Providers: make(map[string]*ProviderConfig),
		Storage:   StorageConfig{Driver: "sqlite"},
		Server: ServerConfig{
			Listen:           ":8787",
			MetricsNamespace: "obsagent",
		},
	}
}

// Load reads the config file and merges environment variable overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(home, ".config", "obsagent", "config.yaml")
		}
	}

	// Read config file (use defaults if not found)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]*ProviderConfig)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown provider %q (use \"openai\" or \"anthropic\")", c.Provider)
	}
	switch c.Storage.Driver {
	case "", "sqlite":
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("storage driver is postgres but postgres_url is empty")
		}
	default:
		return fmt.Errorf("unknown storage driver %q (use \"sqlite\" or \"postgres\")", c.Storage.Driver)
	}
	if t := c.Cache.Threshold; t < 0 || t > 1 {
		return fmt.Errorf("cache threshold %v out of range [0,1]", t)
	}
	return nil
}

// GetProviderConfig returns the config for the named provider, or an empty
// config if not found.
func (c *Config) GetProviderConfig(name string) *ProviderConfig {
	if pc, ok := c.Providers[name]; ok {
		return pc
	}
	return &ProviderConfig{}
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	ensure := func(name string) *ProviderConfig {
		if cfg.Providers[name] == nil {
			cfg.Providers[name] = &ProviderConfig{}
		}
		return cfg.Providers[name]
	}

	// The provider switch must run first so the generic LLM_* overrides
	// below attach to the provider the environment selected.
	if v := os.Getenv("OBSAGENT_PROVIDER"); v != "" {
		cfg.Provider = v
	}

	// Generic overrides apply to the active provider.
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		ensure(cfg.Provider).APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		ensure(cfg.Provider).BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		ensure(cfg.Provider).Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		ensure(cfg.Provider).EmbeddingModel = v
	}

	// Provider-specific keys
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && ensure("openai").APIKey == "" {
		cfg.Providers["openai"].APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && ensure("anthropic").APIKey == "" {
		cfg.Providers["anthropic"].APIKey = v
	}

	// Service knobs
	if v := os.Getenv("OBSAGENT_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("OBSAGENT_DB_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("OBSAGENT_POSTGRES_URL"); v != "" {
		cfg.Storage.Driver = "postgres"
		cfg.Storage.PostgresURL = v
	}
	if v := os.Getenv("OBSAGENT_CACHE_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Cache.Threshold = t
		}
	}
}
