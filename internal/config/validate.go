package config

import (
	"fmt"
	"net/url"

	"github.com/mapstalk/mapstalk/internal/types"
)

// Validate checks the configuration for invalid values. A missing API key
// is a fatal startup condition: the run never starts without one.
func Validate(cfg *Config) error {
	if cfg.AI.APIKey == "" {
		return types.ErrMissingAPIKey
	}
	if cfg.AI.Endpoint == "" {
		return fmt.Errorf("ai.endpoint must not be empty")
	}
	if _, err := url.Parse(cfg.AI.Endpoint); err != nil {
		return fmt.Errorf("invalid ai.endpoint %q: %w", cfg.AI.Endpoint, err)
	}
	if cfg.AI.MaxAttempts < 1 {
		return fmt.Errorf("ai.max_attempts must be >= 1, got %d", cfg.AI.MaxAttempts)
	}
	if cfg.AI.RequestTimeout <= 0 {
		return fmt.Errorf("ai.request_timeout must be > 0")
	}

	if cfg.Listing.URL == "" {
		return fmt.Errorf("listing.url must not be empty")
	}
	if u, err := url.Parse(cfg.Listing.URL); err != nil || u.Host == "" {
		return fmt.Errorf("listing.url %q is not an absolute URL", cfg.Listing.URL)
	}
	if cfg.Listing.CardSelector == "" {
		return fmt.Errorf("listing.card_selector must not be empty")
	}
	if cfg.Listing.SearchSettle < 0 {
		return fmt.Errorf("listing.search_settle must be >= 0")
	}

	if cfg.Scroll.TargetCount < 1 {
		return fmt.Errorf("scroll.target_count must be >= 1, got %d", cfg.Scroll.TargetCount)
	}
	if cfg.Scroll.MaxNoGrowthAttempts < 1 {
		return fmt.Errorf("scroll.max_no_growth must be >= 1, got %d", cfg.Scroll.MaxNoGrowthAttempts)
	}
	if cfg.Scroll.SettleInterval <= 0 {
		return fmt.Errorf("scroll.settle_interval must be > 0")
	}
	if cfg.Scroll.SettleMultiplier < 1 {
		return fmt.Errorf("scroll.settle_multiplier must be >= 1, got %g", cfg.Scroll.SettleMultiplier)
	}

	validStorageTypes := map[string]bool{
		"csv": true, "json": true, "mongodb": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: csv, json, mongodb)", cfg.Storage.Type)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level %q is not supported (valid: debug, info, warn, error)", cfg.Logging.Level)
	}

	return nil
}
