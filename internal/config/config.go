package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for MapStalk.
type Config struct {
	Browser  BrowserConfig  `mapstructure:"browser"  yaml:"browser"`
	Listing  ListingConfig  `mapstructure:"listing"  yaml:"listing"`
	Scroll   ScrollConfig   `mapstructure:"scroll"   yaml:"scroll"`
	AI       AIConfig       `mapstructure:"ai"       yaml:"ai"`
	Resolver ResolverConfig `mapstructure:"resolver" yaml:"resolver"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
}

// BrowserConfig controls the shared browsing context.
type BrowserConfig struct {
	Headless   bool   `mapstructure:"headless"    yaml:"headless"`
	UserAgent  string `mapstructure:"user_agent"  yaml:"user_agent"`
	WindowSize string `mapstructure:"window_size" yaml:"window_size"`
}

// ListingConfig describes the listing platform's page structure.
type ListingConfig struct {
	URL              string        `mapstructure:"url"               yaml:"url"`
	SearchInput      string        `mapstructure:"search_input"      yaml:"search_input"`
	SearchButton     string        `mapstructure:"search_button"     yaml:"search_button"`
	ResultsContainer string        `mapstructure:"results_container" yaml:"results_container"`
	ScrollContainer  string        `mapstructure:"scroll_container"  yaml:"scroll_container"`
	CardSelector     string        `mapstructure:"card_selector"     yaml:"card_selector"`
	CardIndexAttr    string        `mapstructure:"card_index_attr"   yaml:"card_index_attr"`
	DetailReady      string        `mapstructure:"detail_ready"      yaml:"detail_ready"`
	LoadTimeout      time.Duration `mapstructure:"load_timeout"      yaml:"load_timeout"`
	DetailTimeout    time.Duration `mapstructure:"detail_timeout"    yaml:"detail_timeout"`
	SearchSettle     time.Duration `mapstructure:"search_settle"     yaml:"search_settle"`
}

// ScrollConfig controls the discovery loop.
type ScrollConfig struct {
	TargetCount         int           `mapstructure:"target_count"          yaml:"target_count"`
	MaxNoGrowthAttempts int           `mapstructure:"max_no_growth"         yaml:"max_no_growth"`
	SettleInterval      time.Duration `mapstructure:"settle_interval"       yaml:"settle_interval"`
	SettleMultiplier    float64       `mapstructure:"settle_multiplier"     yaml:"settle_multiplier"`
	PageDownPresses     int           `mapstructure:"page_down_presses"     yaml:"page_down_presses"`
}

// AIConfig controls the generation endpoint used for primary extraction.
type AIConfig struct {
	Endpoint       string        `mapstructure:"endpoint"        yaml:"endpoint"`
	Model          string        `mapstructure:"model"           yaml:"model"`
	APIKey         string        `mapstructure:"api_key"         yaml:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"    yaml:"max_attempts"`
	PacingDelay    time.Duration `mapstructure:"pacing_delay"    yaml:"pacing_delay"`
	BackoffBase    time.Duration `mapstructure:"backoff_base"    yaml:"backoff_base"`
	BackoffMax     time.Duration `mapstructure:"backoff_max"     yaml:"backoff_max"`
}

// ResolverConfig controls the secondary-site email lookup.
type ResolverConfig struct {
	Enabled          bool          `mapstructure:"enabled"           yaml:"enabled"`
	EmailDomain      string        `mapstructure:"email_domain"      yaml:"email_domain"`
	ContactSelectors []string      `mapstructure:"contact_selectors" yaml:"contact_selectors"`
	NavTimeout       time.Duration `mapstructure:"nav_timeout"       yaml:"nav_timeout"`
	LoadTimeout      time.Duration `mapstructure:"load_timeout"      yaml:"load_timeout"`
}

// StorageConfig controls result sinks.
type StorageConfig struct {
	Type       string `mapstructure:"type"        yaml:"type"` // csv, json, mongodb
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
	MongoURI   string `mapstructure:"mongo_uri"   yaml:"mongo_uri"`
	MongoDB    string `mapstructure:"mongo_db"    yaml:"mongo_db"`
	MongoColl  string `mapstructure:"mongo_coll"  yaml:"mongo_coll"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults for the default
// listing platform.
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless: true,
			UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			WindowSize: "1440,900",
		},
		Listing: ListingConfig{
			URL:              "https://www.google.com/maps",
			SearchInput:      "input#searchboxinput",
			SearchButton:     "button#searchbox-searchbutton",
			ResultsContainer: `div[role="main"]`,
			ScrollContainer:  `div[role="main"] div[aria-label][tabindex="0"]`,
			CardSelector:     `.Nv2PK, div[role="article"], .hfpxzc`,
			CardIndexAttr:    "data-result-index",
			DetailReady:      "h1, .fontHeadlineLarge, .DUwDvf",
			LoadTimeout:      15 * time.Second,
			DetailTimeout:    10 * time.Second,
			SearchSettle:     2 * time.Second,
		},
		Scroll: ScrollConfig{
			TargetCount:         25,
			MaxNoGrowthAttempts: 10,
			SettleInterval:      300 * time.Millisecond,
			SettleMultiplier:    1.0,
			PageDownPresses:     3,
		},
		AI: AIConfig{
			Endpoint:       "https://generativelanguage.googleapis.com/v1beta",
			Model:          "models/gemini-2.0-flash",
			RequestTimeout: 45 * time.Second,
			MaxAttempts:    6,
			PacingDelay:    1 * time.Second,
			BackoffBase:    2 * time.Second,
			BackoffMax:     60 * time.Second,
		},
		Resolver: ResolverConfig{
			Enabled:     true,
			EmailDomain: "gmail.com",
			ContactSelectors: []string{
				`a[href*="contact"]`,
				"#contact",
				".contact",
				"footer",
			},
			NavTimeout:  20 * time.Second,
			LoadTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Type:       "csv",
			OutputPath: "./output",
			MongoURI:   "mongodb://localhost:27017",
			MongoDB:    "mapstalk",
			MongoColl:  "businesses",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
