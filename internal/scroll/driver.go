// Package scroll drives an infinite-scroll results container until enough
// candidate items have loaded or the list stops growing.
package scroll

import (
	"context"
	"log/slog"
	"time"

	"github.com/mapstalk/mapstalk/internal/config"
	"github.com/mapstalk/mapstalk/internal/extract"
	"github.com/mapstalk/mapstalk/internal/observability"
	"github.com/mapstalk/mapstalk/internal/types"
)

// Container is the scrollable results region of the listing page.
// Implemented by the browser package; faked in tests.
type Container interface {
	// Items returns fresh handles for the currently-rendered candidates.
	Items(ctx context.Context) ([]extract.DetailView, error)
	// ScrollToBottom issues a programmatic scroll to the container bottom.
	ScrollToBottom(ctx context.Context) error
	// PageDown simulates a paging key press as a redundant load trigger.
	PageDown(ctx context.Context) error
}

// State tracks discovery progress across polls. LoadedCount is monotonic;
// ConsecutiveNoGrowth increments exactly when a poll observes no growth
// and resets to zero on any growth.
type State struct {
	LoadedCount         int
	ConsecutiveNoGrowth int
}

// Observe folds one poll's distinct-card total into the state.
func (s *State) Observe(count int) {
	if count > s.LoadedCount {
		s.LoadedCount = count
		s.ConsecutiveNoGrowth = 0
		return
	}
	s.ConsecutiveNoGrowth++
}

// Driver runs the discovery loop.
type Driver struct {
	container Container
	cfg       config.ScrollConfig
	metrics   *observability.Metrics // nil disables counters
	logger    *slog.Logger

	// injectable for tests
	wait func(ctx context.Context, d time.Duration) error
}

// NewDriver creates a scroll driver over the given container.
func NewDriver(container Container, cfg config.ScrollConfig, metrics *observability.Metrics, logger *slog.Logger) *Driver {
	return &Driver{
		container: container,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger.With("component", "scroll_driver"),
		wait:      sleepCtx,
	}
}

// Discover polls the container, scrolling between polls, until one of the
// terminal conditions holds: the target count is reached, the list has not
// grown for MaxNoGrowthAttempts consecutive polls, stop-scrolling is
// requested, or stop-all is requested. Stop-all returns ErrRunStopped and
// the caller must treat the run as aborted.
//
// Handles accumulate across polls in first-seen order, keyed by CardID. A
// virtualized list recycles early cards out of later renders; those cards
// must still reach extraction, so no poll's result is ever discarded.
func (d *Driver) Discover(ctx context.Context, signal *types.StopSignal) ([]extract.DetailView, State, error) {
	var st State
	var items []extract.DetailView
	seen := make(map[string]struct{})

	for {
		if signal.StopAll() {
			return items, st, types.ErrRunStopped
		}
		if err := ctx.Err(); err != nil {
			return items, st, err
		}

		fresh, err := d.container.Items(ctx)
		if err != nil {
			return items, st, err
		}
		for _, view := range fresh {
			id := view.CardID()
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			items = append(items, view)
		}
		st.Observe(len(items))
		if d.metrics != nil {
			d.metrics.ScrollPolls.Add(1)
			d.metrics.CardsRendered.Store(int64(st.LoadedCount))
		}

		d.logger.Debug("poll",
			"rendered", len(fresh),
			"loaded", st.LoadedCount,
			"no_growth", st.ConsecutiveNoGrowth,
		)

		if st.LoadedCount >= d.cfg.TargetCount {
			d.logger.Info("target count reached", "loaded", st.LoadedCount)
			return items, st, nil
		}
		if st.ConsecutiveNoGrowth >= d.cfg.MaxNoGrowthAttempts {
			d.logger.Info("list converged, no more new items", "loaded", st.LoadedCount)
			return items, st, nil
		}
		if signal.StopScrolling() {
			d.logger.Info("stop scrolling requested", "loaded", st.LoadedCount)
			return items, st, nil
		}

		// Both mechanisms fire every round: virtualized lists ignore one or
		// the other depending on focus and render state.
		if err := d.container.ScrollToBottom(ctx); err != nil {
			d.logger.Warn("scroll failed", "error", err)
		}
		for i := 0; i < d.cfg.PageDownPresses; i++ {
			if signal.StopAll() {
				return items, st, types.ErrRunStopped
			}
			if err := d.container.PageDown(ctx); err != nil {
				d.logger.Warn("page down failed", "error", err)
				break
			}
		}

		if err := d.wait(ctx, d.settleFor(st)); err != nil {
			return items, st, err
		}
	}
}

// settleFor returns the render-settle delay before the next poll. Once the
// list pauses, the multiplier stretches the wait so a slow-rendering
// virtualized list is not mistaken for a converged one.
func (d *Driver) settleFor(st State) time.Duration {
	settle := d.cfg.SettleInterval
	if st.ConsecutiveNoGrowth > 0 && d.cfg.SettleMultiplier > 1 {
		settle = time.Duration(float64(settle) * d.cfg.SettleMultiplier)
	}
	return settle
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
