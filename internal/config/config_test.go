package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mapstalk/mapstalk/internal/types"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.AI.APIKey = "test-key"
	return cfg
}

func TestValidateDefaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("defaults with key should validate: %v", err)
	}
}

func TestValidateMissingAPIKeyIsFatal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AI.APIKey = ""

	err := Validate(cfg)
	if !errors.Is(err, types.ErrMissingAPIKey) {
		t.Fatalf("error = %v, want ErrMissingAPIKey", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
	}{
		{"zero target count", func(c *Config) { c.Scroll.TargetCount = 0 }},
		{"zero no-growth budget", func(c *Config) { c.Scroll.MaxNoGrowthAttempts = 0 }},
		{"zero settle interval", func(c *Config) { c.Scroll.SettleInterval = 0 }},
		{"sub-unit settle multiplier", func(c *Config) { c.Scroll.SettleMultiplier = 0.5 }},
		{"relative listing url", func(c *Config) { c.Listing.URL = "/maps" }},
		{"empty card selector", func(c *Config) { c.Listing.CardSelector = "" }},
		{"unknown storage type", func(c *Config) { c.Storage.Type = "parquet" }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"zero ai attempts", func(c *Config) { c.AI.MaxAttempts = 0 }},
		{"negative search settle", func(c *Config) { c.Listing.SearchSettle = -time.Second }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scroll.TargetCount != 25 {
		t.Errorf("TargetCount = %d, want 25", cfg.Scroll.TargetCount)
	}
	if cfg.Scroll.MaxNoGrowthAttempts != 10 {
		t.Errorf("MaxNoGrowthAttempts = %d, want 10", cfg.Scroll.MaxNoGrowthAttempts)
	}
	if cfg.Storage.Type != "csv" {
		t.Errorf("Storage.Type = %q, want csv", cfg.Storage.Type)
	}
	if cfg.Listing.SearchSettle != 2*time.Second {
		t.Errorf("SearchSettle = %v, want 2s", cfg.Listing.SearchSettle)
	}
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapstalk.yaml")
	content := `
listing:
  search_settle: 1s
scroll:
  target_count: 50
  settle_interval: 500ms
storage:
  type: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scroll.TargetCount != 50 {
		t.Errorf("TargetCount = %d, want 50", cfg.Scroll.TargetCount)
	}
	if cfg.Scroll.SettleInterval != 500*time.Millisecond {
		t.Errorf("SettleInterval = %v, want 500ms", cfg.Scroll.SettleInterval)
	}
	if cfg.Listing.SearchSettle != time.Second {
		t.Errorf("SearchSettle = %v, want 1s", cfg.Listing.SearchSettle)
	}
	if cfg.Storage.Type != "json" {
		t.Errorf("Storage.Type = %q, want json", cfg.Storage.Type)
	}
	// Untouched sections keep their defaults.
	if cfg.Listing.SearchInput != "input#searchboxinput" {
		t.Errorf("SearchInput = %q", cfg.Listing.SearchInput)
	}
}

func TestLoadAPIKeyEnvFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AI.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want env fallback", cfg.AI.APIKey)
	}
}
