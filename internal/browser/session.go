// Package browser owns the shared browsing context. The harvest pipeline is
// the session's only driver; the email resolver gets its own pages so the
// listing's navigation state is never disturbed.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/mapstalk/mapstalk/internal/config"
)

// Session is a live browser with one listing page.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	cfg     *config.Config
	logger  *slog.Logger
}

// NewSession launches a browser and opens a blank listing page.
func NewSession(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Browser.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")
	if cfg.Browser.WindowSize != "" {
		l = l.Set("window-size", cfg.Browser.WindowSize)
	}

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	if cfg.Browser.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.Browser.UserAgent}); err != nil {
			logger.Warn("failed to set user agent", "error", err)
		}
	}

	logger.Info("browser session ready", "headless", cfg.Browser.Headless)
	return &Session{
		browser: browser,
		page:    page,
		cfg:     cfg,
		logger:  logger.With("component", "browser_session"),
	}, nil
}

// Browser exposes the underlying browser for resolver page creation.
func (s *Session) Browser() *rod.Browser { return s.browser }

// Close shuts the browser down.
func (s *Session) Close() error {
	if s.browser != nil {
		return s.browser.Close()
	}
	return nil
}

// OpenListing navigates to the listing platform and waits for the search
// input to appear.
func (s *Session) OpenListing(ctx context.Context) error {
	page := s.page.Context(ctx)
	if err := page.Timeout(s.cfg.Listing.LoadTimeout).Navigate(s.cfg.Listing.URL); err != nil {
		return fmt.Errorf("navigate %s: %w", s.cfg.Listing.URL, err)
	}
	if _, err := page.Timeout(s.cfg.Listing.LoadTimeout).Element(s.cfg.Listing.SearchInput); err != nil {
		return fmt.Errorf("search input not found: %w", err)
	}
	return nil
}

// Search fills the query, submits it, and waits for the results container.
func (s *Session) Search(ctx context.Context, query string) error {
	page := s.page.Context(ctx).Timeout(s.cfg.Listing.LoadTimeout)

	inputEl, err := page.Element(s.cfg.Listing.SearchInput)
	if err != nil {
		return fmt.Errorf("search input: %w", err)
	}
	inputEl.MustSelectAllText()
	if err := inputEl.Input(query); err != nil {
		return fmt.Errorf("type query: %w", err)
	}

	button, err := page.Element(s.cfg.Listing.SearchButton)
	if err != nil {
		// Fallback: submit with Enter from the input field.
		_ = inputEl.Focus()
		if err := page.Keyboard.Press(input.Enter); err != nil {
			return fmt.Errorf("submit search: %w", err)
		}
	} else if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click search: %w", err)
	}

	if _, err := page.Element(s.cfg.Listing.ResultsContainer); err != nil {
		return fmt.Errorf("results container: %w", err)
	}
	// Let the first result batch render before the driver starts polling.
	if err := settle(ctx, s.cfg.Listing.SearchSettle); err != nil {
		return err
	}

	s.logger.Info("search submitted", "query", query)
	return nil
}

// settle sleeps for d or until ctx is done.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Results returns the scrollable results region for the scroll driver.
func (s *Session) Results() *Results {
	return &Results{session: s, logger: s.logger.With("component", "results")}
}
