package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mapstalk/mapstalk/internal/config"
	"github.com/mapstalk/mapstalk/internal/harvest"
)

var (
	cfgFile     string
	verbose     bool
	outputPath  string
	outputType  string
	targetCount int
	headful     bool
	noResolver  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mapstalk",
		Short: "MapStalk — Business Listing Harvester",
		Long: `MapStalk harvests structured business records from map listing platforms.

Features:
  • Infinite-scroll discovery with growth-based convergence
  • AI-powered field extraction with selector/regex fallback
  • Secondary-site email resolution
  • Cross-card deduplication
  • CSV, JSON, MongoDB export
  • Graceful two-stage interrupt (finish loaded items, then stop)
  • Metrics endpoint`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(harvestCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// harvestCmd creates the "harvest" subcommand.
func harvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest [query]",
		Short: "Harvest business listings for a search query",
		Long:  "Search the listing platform for the given query, scroll until results converge, and extract every business card into the configured sink.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runHarvest,
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output directory for file sinks")
	cmd.Flags().StringVarP(&outputType, "format", "f", "", "output format: csv, json, mongodb")
	cmd.Flags().IntVarP(&targetCount, "target-count", "n", 0, "stop discovery once this many cards are loaded")
	cmd.Flags().BoolVar(&headful, "headful", false, "run the browser with a visible window")
	cmd.Flags().BoolVar(&noResolver, "no-resolver", false, "skip secondary-site email lookups")

	return cmd
}

// runHarvest executes the harvest command.
func runHarvest(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cfg)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	query := strings.Join(args, " ")

	logger.Info("starting harvest",
		"query", query,
		"target", cfg.Scroll.TargetCount,
		"output", cfg.Storage.OutputPath,
		"format", cfg.Storage.Type,
	)

	h, err := harvest.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create harvester: %w", err)
	}
	defer h.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// First interrupt stops discovery but drains loaded items, second
	// ends the run with what was gathered, third kills the process.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("interrupt received, finishing loaded items (interrupt again to stop)")
		h.Signal().RequestStopScrolling()
		<-sigCh
		logger.Info("second interrupt, stopping run")
		h.Signal().RequestStopAll()
		<-sigCh
		cancel()
	}()

	start := time.Now()
	count, err := h.Run(ctx, query)
	if err != nil {
		return fmt.Errorf("harvest: %w", err)
	}

	elapsed := time.Since(start)
	stats := h.Snapshot()

	fmt.Printf("\n✅ Harvest complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Cards:     %v loaded, %v processed, %v skipped\n",
		stats["cards_rendered"], stats["cards_processed"], stats["cards_skipped"])
	fmt.Printf("   Extracted: %v via AI, %v via selectors\n",
		stats["ai_extractions"], stats["heuristic_extractions"])
	fmt.Printf("   Records:   %d stored (%v duplicates suppressed)\n",
		count, stats["duplicates_suppressed"])
	fmt.Printf("   Output:    %s (%s)\n", cfg.Storage.OutputPath, cfg.Storage.Type)

	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("MapStalk %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Listing:\n")
			fmt.Printf("  URL:               %s\n", cfg.Listing.URL)
			fmt.Printf("  Card Selector:     %s\n", cfg.Listing.CardSelector)
			fmt.Printf("  Load Timeout:      %s\n", cfg.Listing.LoadTimeout)
			fmt.Printf("  Detail Timeout:    %s\n", cfg.Listing.DetailTimeout)
			fmt.Printf("\nScroll:\n")
			fmt.Printf("  Target Count:      %d\n", cfg.Scroll.TargetCount)
			fmt.Printf("  Max No-Growth:     %d\n", cfg.Scroll.MaxNoGrowthAttempts)
			fmt.Printf("  Settle Interval:   %s\n", cfg.Scroll.SettleInterval)
			fmt.Printf("\nAI:\n")
			fmt.Printf("  Model:             %s\n", cfg.AI.Model)
			fmt.Printf("  Max Attempts:      %d\n", cfg.AI.MaxAttempts)
			fmt.Printf("  API Key Set:       %v\n", cfg.AI.APIKey != "")
			fmt.Printf("\nResolver:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Resolver.Enabled)
			fmt.Printf("  Email Domain:      %s\n", cfg.Resolver.EmailDomain)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:              %s\n", cfg.Storage.Type)
			fmt.Printf("  Output Path:       %s\n", cfg.Storage.OutputPath)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
	return cmd
}

// setupLogger creates a structured logger.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if outputPath != "" {
		cfg.Storage.OutputPath = outputPath
	}
	if outputType != "" {
		cfg.Storage.Type = strings.ToLower(outputType)
	}
	if targetCount > 0 {
		cfg.Scroll.TargetCount = targetCount
	}
	if headful {
		cfg.Browser.Headless = false
	}
	if noResolver {
		cfg.Resolver.Enabled = false
	}
}
