package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
// The API key additionally falls back to GEMINI_API_KEY for compatibility
// with the common environment convention.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("MAPSTALK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("mapstalk")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".mapstalk"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.user_agent", cfg.Browser.UserAgent)
	v.SetDefault("browser.window_size", cfg.Browser.WindowSize)

	v.SetDefault("listing.url", cfg.Listing.URL)
	v.SetDefault("listing.search_input", cfg.Listing.SearchInput)
	v.SetDefault("listing.search_button", cfg.Listing.SearchButton)
	v.SetDefault("listing.results_container", cfg.Listing.ResultsContainer)
	v.SetDefault("listing.scroll_container", cfg.Listing.ScrollContainer)
	v.SetDefault("listing.card_selector", cfg.Listing.CardSelector)
	v.SetDefault("listing.card_index_attr", cfg.Listing.CardIndexAttr)
	v.SetDefault("listing.detail_ready", cfg.Listing.DetailReady)
	v.SetDefault("listing.load_timeout", cfg.Listing.LoadTimeout)
	v.SetDefault("listing.detail_timeout", cfg.Listing.DetailTimeout)
	v.SetDefault("listing.search_settle", cfg.Listing.SearchSettle)

	v.SetDefault("scroll.target_count", cfg.Scroll.TargetCount)
	v.SetDefault("scroll.max_no_growth", cfg.Scroll.MaxNoGrowthAttempts)
	v.SetDefault("scroll.settle_interval", cfg.Scroll.SettleInterval)
	v.SetDefault("scroll.settle_multiplier", cfg.Scroll.SettleMultiplier)
	v.SetDefault("scroll.page_down_presses", cfg.Scroll.PageDownPresses)

	v.SetDefault("ai.endpoint", cfg.AI.Endpoint)
	v.SetDefault("ai.model", cfg.AI.Model)
	v.SetDefault("ai.request_timeout", cfg.AI.RequestTimeout)
	v.SetDefault("ai.max_attempts", cfg.AI.MaxAttempts)
	v.SetDefault("ai.pacing_delay", cfg.AI.PacingDelay)
	v.SetDefault("ai.backoff_base", cfg.AI.BackoffBase)
	v.SetDefault("ai.backoff_max", cfg.AI.BackoffMax)

	v.SetDefault("resolver.enabled", cfg.Resolver.Enabled)
	v.SetDefault("resolver.email_domain", cfg.Resolver.EmailDomain)
	v.SetDefault("resolver.contact_selectors", cfg.Resolver.ContactSelectors)
	v.SetDefault("resolver.nav_timeout", cfg.Resolver.NavTimeout)
	v.SetDefault("resolver.load_timeout", cfg.Resolver.LoadTimeout)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_db", cfg.Storage.MongoDB)
	v.SetDefault("storage.mongo_coll", cfg.Storage.MongoColl)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
