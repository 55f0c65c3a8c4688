package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mapstalk/mapstalk/internal/observability"
	"github.com/mapstalk/mapstalk/internal/types"
)

// DetailView is one on-page candidate listing, addressable for activation
// and content capture. Implemented by the browser package; faked in tests.
type DetailView interface {
	// CardID is the session-scoped identity used for seen-tracking.
	CardID() string
	// Activate clicks the item and waits for its detail view to render.
	Activate(ctx context.Context) error
	// Text returns the full rendered text of the detail view.
	Text(ctx context.Context) (string, error)
	// HTML returns the rendered HTML of the detail view.
	HTML(ctx context.Context) (string, error)
}

// AIClient is the primary extraction strategy.
type AIClient interface {
	Extract(ctx context.Context, text string) (types.BusinessRecord, bool)
}

// EmailResolver recovers a missing email from the business's own website.
type EmailResolver interface {
	ResolveEmail(ctx context.Context, website string) string
}

// Coordinator orchestrates per-item extraction: AI first, heuristics as
// fallback, field cleaning, and email resolution.
type Coordinator struct {
	ai        AIClient
	heuristic *Heuristic
	resolver  EmailResolver          // nil disables resolution
	metrics   *observability.Metrics // nil disables counters
	logger    *slog.Logger
}

// NewCoordinator wires the two extraction tiers and the optional resolver.
func NewCoordinator(ai AIClient, heuristic *Heuristic, resolver EmailResolver, metrics *observability.Metrics, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		ai:        ai,
		heuristic: heuristic,
		resolver:  resolver,
		metrics:   metrics,
		logger:    logger.With("component", "coordinator"),
	}
}

// ExtractOne activates the item and produces a cleaned record. Any failure
// is item-level: the error is logged here and returned so the caller skips
// this item, never aborting the run.
func (c *Coordinator) ExtractOne(ctx context.Context, view DetailView) (types.BusinessRecord, error) {
	if err := view.Activate(ctx); err != nil {
		wrapped := &types.ExtractError{CardID: view.CardID(), Step: "activate", Err: err}
		c.logger.Warn("item skipped", "card_id", view.CardID(), "error", wrapped)
		return types.BusinessRecord{}, wrapped
	}

	fullText, err := view.Text(ctx)
	if err != nil {
		wrapped := &types.ExtractError{CardID: view.CardID(), Step: "capture_text", Err: err}
		c.logger.Warn("item skipped", "card_id", view.CardID(), "error", wrapped)
		return types.BusinessRecord{}, wrapped
	}

	result := c.extract(ctx, view, fullText)
	rec := CleanRecord(result.Record)

	if c.resolver != nil && needsEmail(rec.Email) && isAbsoluteURL(rec.Website) {
		if c.metrics != nil {
			c.metrics.ResolverLookups.Add(1)
		}
		if found := c.resolver.ResolveEmail(ctx, rec.Website); found != "" {
			rec.Email = found
			if c.metrics != nil {
				c.metrics.ResolverHits.Add(1)
			}
		}
	}

	c.logger.Debug("item extracted",
		"card_id", view.CardID(),
		"source", result.Source,
		"name", rec.Name,
	)
	return rec, nil
}

// extract runs the two-tier strategy and tags the result with its source.
func (c *Coordinator) extract(ctx context.Context, view DetailView, fullText string) types.ExtractionResult {
	if rec, ok := c.ai.Extract(ctx, fullText); ok {
		if c.metrics != nil {
			c.metrics.AIExtractions.Add(1)
		}
		return types.ExtractionResult{Record: rec, Source: types.SourceAI}
	}

	detailHTML, err := view.HTML(ctx)
	if err != nil {
		// Regex scans over the captured text still apply.
		c.logger.Warn("detail HTML capture failed", "card_id", view.CardID(), "error", err)
		detailHTML = ""
	}
	if c.metrics != nil {
		c.metrics.HeuristicExtractions.Add(1)
	}
	return types.ExtractionResult{
		Record: c.heuristic.Extract(detailHTML, fullText),
		Source: types.SourceHeuristic,
	}
}

// needsEmail reports whether the email field is missing or malformed.
func needsEmail(email string) bool {
	return email == "" || !strings.Contains(email, "@")
}

// isAbsoluteURL reports whether s is a non-empty absolute http(s) URL.
func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
