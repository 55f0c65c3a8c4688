package browser

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"

	"github.com/mapstalk/mapstalk/internal/config"
	"github.com/mapstalk/mapstalk/internal/types"
)

// Resolver recovers a missing email address by visiting the business's own
// website. Each lookup runs on a fresh stealth page so the primary listing
// page's navigation state stays untouched.
type Resolver struct {
	browser *rod.Browser
	cfg     config.ResolverConfig
	pattern *regexp.Regexp
	logger  *slog.Logger
}

// NewResolver builds a resolver scanning for addresses on the configured
// provider domain (e.g. gmail.com).
func NewResolver(browser *rod.Browser, cfg config.ResolverConfig, logger *slog.Logger) *Resolver {
	pattern := regexp.MustCompile(`(?i)[\w.\-]+@` + regexp.QuoteMeta(cfg.EmailDomain))
	return &Resolver{
		browser: browser,
		cfg:     cfg,
		pattern: pattern,
		logger:  logger.With("component", "email_resolver"),
	}
}

// ResolveEmail visits url and returns the first matching address found in a
// contact-labeled element, then anywhere in the rendered page text. Every
// failure, including an unreachable site, yields "".
func (r *Resolver) ResolveEmail(ctx context.Context, url string) string {
	email, err := r.lookup(ctx, url)
	if err != nil {
		r.logger.Warn("email resolution failed", "error", &types.ResolveError{URL: url, Err: err})
		return ""
	}
	if email != "" {
		r.logger.Debug("email resolved", "url", url, "email", email)
	}
	return email
}

func (r *Resolver) lookup(ctx context.Context, url string) (string, error) {
	page, err := stealth.Page(r.browser)
	if err != nil {
		return "", fmt.Errorf("open resolver page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.Timeout(r.cfg.NavTimeout).Navigate(url); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.Timeout(r.cfg.LoadTimeout).WaitLoad(); err != nil {
		// Partially-loaded pages are still worth scanning.
		r.logger.Debug("load wait timed out, scanning anyway", "url", url)
	}

	for _, selector := range r.cfg.ContactSelectors {
		els, err := page.Elements(selector)
		if err != nil {
			continue
		}
		for _, el := range els {
			text, err := el.Text()
			if err != nil {
				continue
			}
			if match := r.pattern.FindString(text); match != "" {
				return match, nil
			}
		}
	}

	obj, err := page.Timeout(r.cfg.LoadTimeout).Eval(`() => document.body.innerText`)
	if err != nil {
		return "", fmt.Errorf("read page text: %w", err)
	}
	return r.pattern.FindString(obj.Value.Str()), nil
}
