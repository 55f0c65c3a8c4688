package scroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/mapstalk/mapstalk/internal/config"
	"github.com/mapstalk/mapstalk/internal/extract"
	"github.com/mapstalk/mapstalk/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type stubView struct{ id string }

func (s stubView) CardID() string                           { return s.id }
func (s stubView) Activate(ctx context.Context) error       { return nil }
func (s stubView) Text(ctx context.Context) (string, error) { return "", nil }
func (s stubView) HTML(ctx context.Context) (string, error) { return "", nil }

// fakeContainer replays a fixed schedule of rendered-item counts, one per
// poll. The last count repeats once the schedule runs out.
type fakeContainer struct {
	counts    []int
	poll      int
	scrolls   int
	pageDowns int
	onScroll  func(poll int)
}

func (f *fakeContainer) Items(ctx context.Context) ([]extract.DetailView, error) {
	i := f.poll
	if i >= len(f.counts) {
		i = len(f.counts) - 1
	}
	f.poll++
	items := make([]extract.DetailView, f.counts[i])
	for j := range items {
		items[j] = stubView{id: fmt.Sprintf("card-%d", j)}
	}
	return items, nil
}

func (f *fakeContainer) ScrollToBottom(ctx context.Context) error {
	f.scrolls++
	if f.onScroll != nil {
		f.onScroll(f.poll)
	}
	return nil
}

func (f *fakeContainer) PageDown(ctx context.Context) error {
	f.pageDowns++
	return nil
}

func testScrollConfig() config.ScrollConfig {
	return config.ScrollConfig{
		TargetCount:         25,
		MaxNoGrowthAttempts: 3,
		SettleInterval:      time.Millisecond,
		SettleMultiplier:    1.0,
		PageDownPresses:     2,
	}
}

func newTestDriver(c Container, cfg config.ScrollConfig) *Driver {
	d := NewDriver(c, cfg, nil, testLogger)
	d.wait = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return d
}

func TestDiscoverReachesTarget(t *testing.T) {
	c := &fakeContainer{counts: []int{5, 12, 20, 27}}
	d := newTestDriver(c, testScrollConfig())

	items, st, err := d.Discover(context.Background(), &types.StopSignal{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.LoadedCount != 27 {
		t.Errorf("LoadedCount = %d, want 27", st.LoadedCount)
	}
	if len(items) != 27 {
		t.Errorf("items = %d, want 27", len(items))
	}
	if c.scrolls != 3 {
		t.Errorf("scrolls = %d, want 3 (none after the terminal poll)", c.scrolls)
	}
}

func TestDiscoverConvergesOnNoGrowth(t *testing.T) {
	c := &fakeContainer{counts: []int{5, 8, 8, 8, 8}}
	cfg := testScrollConfig()
	d := newTestDriver(c, cfg)

	items, st, err := d.Discover(context.Background(), &types.StopSignal{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.LoadedCount != 8 {
		t.Errorf("LoadedCount = %d, want 8", st.LoadedCount)
	}
	if st.ConsecutiveNoGrowth != cfg.MaxNoGrowthAttempts {
		t.Errorf("ConsecutiveNoGrowth = %d, want %d", st.ConsecutiveNoGrowth, cfg.MaxNoGrowthAttempts)
	}
	if len(items) != 8 {
		t.Errorf("items = %d, want 8", len(items))
	}
	// Growth poll + maxNoGrowth stalled polls after the last growth.
	if c.poll != 2+cfg.MaxNoGrowthAttempts {
		t.Errorf("polls = %d, want %d", c.poll, 2+cfg.MaxNoGrowthAttempts)
	}
}

func TestDiscoverKeepsRecycledCards(t *testing.T) {
	// A virtualized list renders 10 cards, then recycles down to 6 per
	// render. The 4 recycled cards were discovered and must stay in the
	// returned handles.
	c := &fakeContainer{counts: []int{10, 6, 6, 6, 6}}
	d := newTestDriver(c, testScrollConfig())

	items, st, err := d.Discover(context.Background(), &types.StopSignal{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.LoadedCount != 10 {
		t.Errorf("LoadedCount = %d, want 10", st.LoadedCount)
	}
	if len(items) != 10 {
		t.Fatalf("items = %d, want all 10 discovered cards", len(items))
	}
	ids := make(map[string]bool)
	for _, it := range items {
		ids[it.CardID()] = true
	}
	if len(ids) != 10 || !ids["card-9"] {
		t.Errorf("handle ids = %v, want card-0 through card-9 once each", ids)
	}
}

func TestDiscoverGrowthResetsStall(t *testing.T) {
	c := &fakeContainer{counts: []int{5, 5, 5, 9, 9, 9, 9}}
	d := newTestDriver(c, testScrollConfig())

	_, st, err := d.Discover(context.Background(), &types.StopSignal{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.LoadedCount != 9 {
		t.Errorf("LoadedCount = %d, want 9 (stall must reset on growth)", st.LoadedCount)
	}
}

func TestDiscoverStopScrollingKeepsItems(t *testing.T) {
	signal := &types.StopSignal{}
	c := &fakeContainer{counts: []int{5, 10, 15, 20}}
	c.onScroll = func(poll int) {
		if poll == 2 {
			signal.RequestStopScrolling()
		}
	}
	d := newTestDriver(c, testScrollConfig())

	items, _, err := d.Discover(context.Background(), signal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One more poll completes after the request, then discovery ends.
	if len(items) != 15 {
		t.Errorf("items = %d, want 15", len(items))
	}
}

func TestDiscoverStopAllAborts(t *testing.T) {
	signal := &types.StopSignal{}
	signal.RequestStopAll()
	c := &fakeContainer{counts: []int{5}}
	d := newTestDriver(c, testScrollConfig())

	_, _, err := d.Discover(context.Background(), signal)
	if !errors.Is(err, types.ErrRunStopped) {
		t.Fatalf("error = %v, want ErrRunStopped", err)
	}
	if c.poll != 0 {
		t.Errorf("polls = %d, want 0", c.poll)
	}
}

func TestDiscoverContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &fakeContainer{counts: []int{5}}
	d := newTestDriver(c, testScrollConfig())

	_, _, err := d.Discover(ctx, &types.StopSignal{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestDiscoverFiresBothScrollMechanisms(t *testing.T) {
	cfg := testScrollConfig()
	c := &fakeContainer{counts: []int{5, 8, 8, 8, 8}}
	d := newTestDriver(c, cfg)

	if _, _, err := d.Discover(context.Background(), &types.StopSignal{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.scrolls == 0 {
		t.Error("ScrollToBottom never fired")
	}
	if c.pageDowns != c.scrolls*cfg.PageDownPresses {
		t.Errorf("pageDowns = %d, want %d per scroll round", c.pageDowns, cfg.PageDownPresses)
	}
}

func TestSettleForStretchesOnStall(t *testing.T) {
	cfg := testScrollConfig()
	cfg.SettleInterval = 100 * time.Millisecond
	cfg.SettleMultiplier = 2.5
	d := NewDriver(&fakeContainer{counts: []int{0}}, cfg, nil, testLogger)

	if got := d.settleFor(State{ConsecutiveNoGrowth: 0}); got != 100*time.Millisecond {
		t.Errorf("growing settle = %v, want base interval", got)
	}
	if got := d.settleFor(State{ConsecutiveNoGrowth: 2}); got != 250*time.Millisecond {
		t.Errorf("stalled settle = %v, want 250ms", got)
	}
}

func TestStateObserve(t *testing.T) {
	var st State
	st.Observe(5)
	if st.LoadedCount != 5 || st.ConsecutiveNoGrowth != 0 {
		t.Errorf("after growth: %+v", st)
	}
	st.Observe(5)
	st.Observe(4)
	if st.LoadedCount != 5 || st.ConsecutiveNoGrowth != 2 {
		t.Errorf("after stalls: %+v (count must stay monotonic)", st)
	}
	st.Observe(7)
	if st.LoadedCount != 7 || st.ConsecutiveNoGrowth != 0 {
		t.Errorf("growth must reset stall: %+v", st)
	}
}
