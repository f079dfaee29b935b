package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv blanks every override this package reads so tests see only what
// they set themselves.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LLM_API_KEY", "LLM_BASE_URL", "LLM_MODEL", "LLM_EMBEDDING_MODEL",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"OBSAGENT_PROVIDER", "OBSAGENT_LISTEN", "OBSAGENT_DB_PATH",
		"OBSAGENT_POSTGRES_URL", "OBSAGENT_CACHE_THRESHOLD",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Provider != "openai" {
		t.Fatalf("Provider = %q, want openai", cfg.Provider)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Fatalf("Storage.Driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Server.Listen != ":8787" {
		t.Fatalf("Server.Listen = %q, want :8787", cfg.Server.Listen)
	}
	if cfg.Server.MetricsNamespace != "obsagent" {
		t.Fatalf("Server.MetricsNamespace = %q, want obsagent", cfg.Server.MetricsNamespace)
	}
	if cfg.Cache.Threshold != 0 {
		t.Fatalf("Cache.Threshold = %v, want 0 (library default)", cfg.Cache.Threshold)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
provider: anthropic
providers:
  anthropic:
    api_key: sk-test
    model: claude-3-5-haiku-latest
cache:
  threshold: 0.9
storage:
  driver: sqlite
  sqlite_path: /tmp/test.db
server:
  listen: ":9000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Provider != "anthropic" {
		t.Fatalf("Provider = %q, want anthropic", cfg.Provider)
	}
	pc := cfg.GetProviderConfig("anthropic")
	if pc.APIKey != "sk-test" || pc.Model != "claude-3-5-haiku-latest" {
		t.Fatalf("provider config = %+v", pc)
	}
	if cfg.Cache.Threshold != 0.9 {
		t.Fatalf("Cache.Threshold = %v, want 0.9", cfg.Cache.Threshold)
	}
	if cfg.Storage.SQLitePath != "/tmp/test.db" {
		t.Fatalf("SQLitePath = %q", cfg.Storage.SQLitePath)
	}
	if cfg.Server.Listen != ":9000" {
		t.Fatalf("Listen = %q, want :9000", cfg.Server.Listen)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "provider: [unterminated")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() accepted invalid YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_API_KEY", "env-key")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("OBSAGENT_LISTEN", ":7000")
	t.Setenv("OBSAGENT_CACHE_THRESHOLD", "0.75")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	pc := cfg.GetProviderConfig("openai")
	if pc.APIKey != "env-key" {
		t.Fatalf("APIKey = %q, want env-key", pc.APIKey)
	}
	if pc.Model != "gpt-4o" {
		t.Fatalf("Model = %q, want gpt-4o", pc.Model)
	}
	if cfg.Server.Listen != ":7000" {
		t.Fatalf("Listen = %q, want :7000", cfg.Server.Listen)
	}
	if cfg.Cache.Threshold != 0.75 {
		t.Fatalf("Threshold = %v, want 0.75", cfg.Cache.Threshold)
	}
}

func TestProviderSwitchAppliesBeforeGenericOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OBSAGENT_PROVIDER", "anthropic")
	t.Setenv("LLM_API_KEY", "env-key")
	t.Setenv("LLM_MODEL", "claude-3-5-haiku-latest")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Provider != "anthropic" {
		t.Fatalf("Provider = %q, want anthropic", cfg.Provider)
	}
	ac := cfg.GetProviderConfig("anthropic")
	if ac.APIKey != "env-key" {
		t.Fatalf("anthropic APIKey = %q, want the LLM_API_KEY value", ac.APIKey)
	}
	if ac.Model != "claude-3-5-haiku-latest" {
		t.Fatalf("anthropic Model = %q, want the LLM_MODEL value", ac.Model)
	}
	if got := cfg.GetProviderConfig("openai").APIKey; got != "" {
		t.Fatalf("openai APIKey = %q, generic override leaked to the wrong provider", got)
	}
}

func TestEnvDoesNotClobberExplicitKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "ambient-key")

	path := writeConfig(t, `
provider: openai
providers:
  openai:
    api_key: file-key
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := cfg.GetProviderConfig("openai").APIKey; got != "file-key" {
		t.Fatalf("APIKey = %q, want the file value to win over OPENAI_API_KEY", got)
	}
}

func TestPostgresEnvSwitchesDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("OBSAGENT_POSTGRES_URL", "postgres://localhost/obsagent")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Fatalf("Driver = %q, want postgres", cfg.Storage.Driver)
	}
	if cfg.Storage.PostgresURL != "postgres://localhost/obsagent" {
		t.Fatalf("PostgresURL = %q", cfg.Storage.PostgresURL)
	}
}

func TestValidation(t *testing.T) {
	clearEnv(t)

	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown provider",
			yaml:    "provider: gemini",
			wantErr: "unknown provider",
		},
		{
			name:    "unknown storage driver",
			yaml:    "storage:\n  driver: mysql",
			wantErr: "unknown storage driver",
		},
		{
			name:    "postgres without url",
			yaml:    "storage:\n  driver: postgres",
			wantErr: "postgres_url is empty",
		},
		{
			name:    "threshold out of range",
			yaml:    "cache:\n  threshold: 1.5",
			wantErr: "out of range",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil {
				t.Fatal("Load() accepted invalid config")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestGetProviderConfigUnknown(t *testing.T) {
	cfg := DefaultConfig()
	pc := cfg.GetProviderConfig("nope")
	if pc == nil || pc.APIKey != "" {
		t.Fatalf("unknown provider config = %+v, want empty", pc)
	}
}
