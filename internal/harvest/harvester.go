// Package harvest wires the full pipeline for one run: search, scroll
// discovery, per-item extraction, dedup accumulation, and persistence.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/mapstalk/mapstalk/internal/browser"
	"github.com/mapstalk/mapstalk/internal/config"
	"github.com/mapstalk/mapstalk/internal/dataset"
	"github.com/mapstalk/mapstalk/internal/extract"
	"github.com/mapstalk/mapstalk/internal/observability"
	"github.com/mapstalk/mapstalk/internal/scroll"
	"github.com/mapstalk/mapstalk/internal/storage"
	"github.com/mapstalk/mapstalk/internal/types"
)

// Harvester owns the browsing context and all pipeline stages for a run.
type Harvester struct {
	cfg     *config.Config
	session *browser.Session
	driver  *scroll.Driver
	builder *dataset.Builder
	store   storage.Storage
	signal  *types.StopSignal
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New launches the browser and assembles the pipeline. The caller must
// Close the harvester to release the browser and flush storage.
func New(cfg *config.Config, logger *slog.Logger) (*Harvester, error) {
	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	session, err := browser.NewSession(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("browser session: %w", err)
	}

	platformHost := ""
	if u, err := url.Parse(cfg.Listing.URL); err == nil {
		platformHost = u.Hostname()
	}

	ai := extract.NewAIExtractor(cfg.AI, logger)
	heuristic := extract.NewHeuristic(extract.DefaultRules(), platformHost, logger)

	var resolver extract.EmailResolver
	if cfg.Resolver.Enabled {
		resolver = browser.NewResolver(session.Browser(), cfg.Resolver, logger)
	}

	coordinator := extract.NewCoordinator(ai, heuristic, resolver, metrics, logger)
	driver := scroll.NewDriver(session.Results(), cfg.Scroll, metrics, logger)
	builder := dataset.NewBuilder(coordinator, cfg.Scroll.TargetCount, metrics, logger)

	store, err := newStore(cfg, logger)
	if err != nil {
		_ = session.Close()
		return nil, err
	}

	return &Harvester{
		cfg:     cfg,
		session: session,
		driver:  driver,
		builder: builder,
		store:   store,
		signal:  &types.StopSignal{},
		metrics: metrics,
		logger:  logger.With("component", "harvester"),
	}, nil
}

// Signal returns the run's stop signal for the controlling surface
// (signal handler, UI) to set.
func (h *Harvester) Signal() *types.StopSignal { return h.signal }

// Run executes one harvest for the given query and persists the result.
// A stop-all request ends the run cleanly with whatever was accumulated;
// the record count is returned either way.
func (h *Harvester) Run(ctx context.Context, query string) (int, error) {
	h.signal.Reset()
	start := time.Now()

	if err := h.session.OpenListing(ctx); err != nil {
		return 0, fmt.Errorf("open listing: %w", err)
	}
	if err := h.session.Search(ctx, query); err != nil {
		return 0, fmt.Errorf("search: %w", err)
	}

	handles, state, err := h.driver.Discover(ctx, h.signal)
	aborted := errors.Is(err, types.ErrRunStopped)
	if err != nil && !aborted {
		return 0, fmt.Errorf("discover items: %w", err)
	}
	h.logger.Info("discovery finished",
		"loaded", state.LoadedCount,
		"no_growth_streak", state.ConsecutiveNoGrowth,
		"aborted", aborted,
	)

	var records []types.BusinessRecord
	if !aborted {
		records, err = h.builder.Run(ctx, handles, h.signal)
		if errors.Is(err, types.ErrRunStopped) {
			aborted = true
		} else if err != nil {
			return len(records), fmt.Errorf("build dataset: %w", err)
		}
	} else {
		records = h.builder.Records()
	}

	if err := h.store.Store(records); err != nil {
		return len(records), fmt.Errorf("store records: %w", err)
	}
	h.metrics.RecordsStored.Add(int64(len(records)))

	h.logger.Info("harvest complete",
		"query", query,
		"records", len(records),
		"aborted", aborted,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return len(records), nil
}

// Snapshot exposes the run counters for the end-of-run summary.
func (h *Harvester) Snapshot() map[string]int64 { return h.metrics.Snapshot() }

// Close releases the browser and flushes storage.
func (h *Harvester) Close() error {
	var firstErr error
	if err := h.session.Close(); err != nil {
		firstErr = err
	}
	if err := h.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// newStore builds the configured result sink.
func newStore(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.Storage.Type {
	case "mongodb":
		store, err := storage.NewMongoStorage(cfg.Storage.MongoURI, cfg.Storage.MongoDB, cfg.Storage.MongoColl, logger)
		if err != nil {
			return nil, fmt.Errorf("create storage: %w", err)
		}
		return store, nil
	default:
		store, err := storage.NewFileStorage(cfg.Storage.Type, cfg.Storage.OutputPath, logger)
		if err != nil {
			return nil, fmt.Errorf("create storage: %w", err)
		}
		return store, nil
	}
}
