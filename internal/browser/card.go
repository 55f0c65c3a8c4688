package browser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Card is one rendered candidate item in the results list. It is only
// valid within the scroll session that produced it: CardIDs are
// seen-tracking keys, not durable identifiers.
type Card struct {
	session *Session
	el      *rod.Element
	id      string
	logger  *slog.Logger
}

// CardID returns the session-scoped identity of this card.
func (c *Card) CardID() string { return c.id }

// Activate clicks the card and waits for the detail view to render.
// A render timeout is an item-level failure for the caller to skip.
func (c *Card) Activate(ctx context.Context) error {
	_ = c.el.ScrollIntoView()
	if err := c.el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click card: %w", err)
	}

	page := c.session.page.Context(ctx).Timeout(c.session.cfg.Listing.DetailTimeout)
	el, err := page.Element(c.session.cfg.Listing.DetailReady)
	if err != nil {
		return fmt.Errorf("detail view: %w", err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("detail view visibility: %w", err)
	}
	// Brief settle so late-arriving detail fields make it into the capture.
	time.Sleep(200 * time.Millisecond)
	return nil
}

// Text captures the full rendered text of the page with the detail view open.
func (c *Card) Text(ctx context.Context) (string, error) {
	page := c.session.page.Context(ctx).Timeout(c.session.cfg.Listing.DetailTimeout)
	obj, err := page.Eval(`() => document.body.innerText`)
	if err != nil {
		return "", fmt.Errorf("capture text: %w", err)
	}
	return obj.Value.Str(), nil
}

// HTML captures the rendered HTML for selector-based extraction.
func (c *Card) HTML(ctx context.Context) (string, error) {
	page := c.session.page.Context(ctx).Timeout(c.session.cfg.Listing.DetailTimeout)
	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("capture html: %w", err)
	}
	return html, nil
}

// cardID derives the seen-set key for an element: its native index
// attribute when present, otherwise the positional index strengthened with
// a hash of the visible text so re-renders do not silently collide.
func cardID(el *rod.Element, attr string, position int) string {
	if attr != "" {
		if v, err := el.Attribute(attr); err == nil && v != nil && *v != "" {
			return *v
		}
	}
	text, err := el.Text()
	if err != nil {
		text = ""
	}
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return fmt.Sprintf("pos-%d-%s", position, hex.EncodeToString(sum[:4]))
}
