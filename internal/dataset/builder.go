// Package dataset accumulates a bounded, duplicate-free record set from
// discovered listing items.
package dataset

import (
	"context"
	"log/slog"

	"github.com/mapstalk/mapstalk/internal/extract"
	"github.com/mapstalk/mapstalk/internal/observability"
	"github.com/mapstalk/mapstalk/internal/types"
)

// Extractor turns one listing item into a record, or an item-level error
// meaning "skip". Implemented by extract.Coordinator.
type Extractor interface {
	ExtractOne(ctx context.Context, view extract.DetailView) (types.BusinessRecord, error)
}

// Builder iterates discovered items, skips ones already processed in this
// session (by CardID), suppresses duplicate businesses (by the lower-cased
// six-field key), and accumulates up to maxRecords records.
type Builder struct {
	extractor  Extractor
	maxRecords int
	metrics    *observability.Metrics // nil disables counters
	logger     *slog.Logger

	seenCards map[string]struct{}
	seenKeys  map[string]struct{}
	records   []types.BusinessRecord
}

// NewBuilder creates a builder capped at maxRecords accumulated records.
func NewBuilder(extractor Extractor, maxRecords int, metrics *observability.Metrics, logger *slog.Logger) *Builder {
	return &Builder{
		extractor:  extractor,
		maxRecords: maxRecords,
		metrics:    metrics,
		logger:     logger.With("component", "dataset_builder"),
		seenCards:  make(map[string]struct{}),
		seenKeys:   make(map[string]struct{}),
		records:    make([]types.BusinessRecord, 0, maxRecords),
	}
}

// Run processes the given handles. Stop-all is honored before every item:
// it returns the records accumulated so far together with ErrRunStopped,
// which callers treat as partial success, not failure. Item-level failures
// are skipped, never fatal.
func (b *Builder) Run(ctx context.Context, handles []extract.DetailView, signal *types.StopSignal) ([]types.BusinessRecord, error) {
	for _, handle := range handles {
		if signal.StopAll() {
			b.logger.Info("stop requested mid-extraction", "accumulated", len(b.records))
			return b.records, types.ErrRunStopped
		}
		if err := ctx.Err(); err != nil {
			return b.records, err
		}
		if len(b.records) >= b.maxRecords {
			b.logger.Info("record cap reached", "max", b.maxRecords)
			break
		}

		id := handle.CardID()
		if _, seen := b.seenCards[id]; seen {
			continue
		}
		b.seenCards[id] = struct{}{}
		if b.metrics != nil {
			b.metrics.CardsProcessed.Add(1)
		}

		rec, err := b.extractor.ExtractOne(ctx, handle)
		if err != nil {
			// Already logged at the item level; skip and move on.
			if b.metrics != nil {
				b.metrics.CardsSkipped.Add(1)
			}
			continue
		}

		key := rec.Key()
		if _, dup := b.seenKeys[key]; dup {
			b.logger.Debug("duplicate suppressed", "card_id", id, "name", rec.Name)
			if b.metrics != nil {
				b.metrics.DuplicatesSuppressed.Add(1)
			}
			continue
		}
		b.seenKeys[key] = struct{}{}
		b.records = append(b.records, rec)
		if b.metrics != nil {
			b.metrics.RecordsAccumulated.Add(1)
		}
	}

	return b.records, nil
}

// Records returns the records accumulated so far.
func (b *Builder) Records() []types.BusinessRecord { return b.records }
