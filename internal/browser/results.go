package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod/lib/input"

	"github.com/mapstalk/mapstalk/internal/extract"
)

// Results is the scrollable results region of the listing page. It backs
// the scroll driver's container contract.
type Results struct {
	session *Session
	logger  *slog.Logger
}

// Items queries the currently-rendered candidate cards. Handles are fresh
// on every call; duplicates across polls are expected and filtered
// downstream by CardID.
func (r *Results) Items(ctx context.Context) ([]extract.DetailView, error) {
	page := r.session.page.Context(ctx)
	els, err := page.Elements(r.session.cfg.Listing.CardSelector)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}

	views := make([]extract.DetailView, 0, len(els))
	for i, el := range els {
		views = append(views, &Card{
			session: r.session,
			el:      el,
			id:      cardID(el, r.session.cfg.Listing.CardIndexAttr, i),
			logger:  r.logger,
		})
	}
	return views, nil
}

// ScrollToBottom scrolls the results container to its full height via JS,
// falling back to a mouse wheel gesture when the container selector does
// not match (virtualized lists ignore one or the other).
func (r *Results) ScrollToBottom(ctx context.Context) error {
	page := r.session.page.Context(ctx)
	js := fmt.Sprintf(
		`() => { const el = document.querySelector(%q); if (el) { el.scrollTo(0, el.scrollHeight); return true; } return false; }`,
		r.session.cfg.Listing.ScrollContainer,
	)
	obj, err := page.Eval(js)
	if err != nil || !obj.Value.Bool() {
		if werr := page.Mouse.Scroll(0, 5000, 1); werr != nil {
			return fmt.Errorf("scroll results: %w", werr)
		}
	}
	return nil
}

// PageDown focuses the results container and presses PageDown, a redundant
// load trigger alongside the programmatic scroll.
func (r *Results) PageDown(ctx context.Context) error {
	page := r.session.page.Context(ctx)
	if el, err := page.Element(r.session.cfg.Listing.ScrollContainer); err == nil {
		_ = el.Focus()
	}
	return page.Keyboard.Press(input.PageDown)
}
