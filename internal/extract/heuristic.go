package extract

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/mapstalk/mapstalk/internal/types"
)

// Rule is a single selector candidate for one field. Candidates are tried
// in order; the first non-empty trimmed value wins.
type Rule struct {
	Type     string // "css" (default) or "xpath"
	Selector string
	Attr     string // css only: read this attribute instead of text
}

// RuleSet holds the ordered selector candidates per field.
type RuleSet struct {
	Name         []Rule
	BusinessType []Rule
	Address      []Rule
	Phone        []Rule
	Website      []Rule
	Email        []Rule
}

// DefaultRules returns the selector candidates for the default listing
// platform's detail pane.
func DefaultRules() RuleSet {
	return RuleSet{
		Name: []Rule{
			{Selector: "h1"},
			{Selector: ".fontHeadlineLarge"},
			{Selector: ".DUwDvf"},
			{Selector: `[data-item-id="title"]`},
		},
		BusinessType: []Rule{
			{Selector: `.fontBodyMedium button[jsaction*="pane.rating.category"]`},
			{Selector: ".skqShb"},
			{Type: "xpath", Selector: `//button[contains(@jsaction, "category")]`},
		},
		Address: []Rule{
			{Selector: `[data-item-id="address"]`},
			{Selector: ".rogA2c"},
			{Selector: ".Io6YTe.fontBodyMedium"},
			{Selector: ".LrzXr"},
		},
		Phone: []Rule{
			{Selector: `[data-item-id="phone"]`},
			{Selector: ".UsdlK"},
			{Type: "xpath", Selector: `//button[starts-with(@data-item-id, "phone")]`},
		},
		Website: []Rule{
			{Selector: `a[data-item-id="authority"]`, Attr: "href"},
			{Selector: `a[aria-label*="Website"]`, Attr: "href"},
			{Selector: ".rogA2c a", Attr: "href"},
			{Selector: ".Io6YTe a", Attr: "href"},
		},
		Email: []Rule{
			{Selector: `a[href^="mailto:"]`, Attr: "href"},
		},
	}
}

var (
	phonePattern = regexp.MustCompile(`\(?\+?\d[\d\s\-().]{8,}\d`)
	emailPattern = regexp.MustCompile(`[\w.\-]+@[\w.\-]+\.\w+`)
)

// Heuristic extracts fields from a captured detail view using selector
// candidates with regex fallbacks over the full rendered text. It always
// succeeds: unfound fields come back as empty strings.
type Heuristic struct {
	rules        RuleSet
	platformHost string
	logger       *slog.Logger
}

// NewHeuristic creates a heuristic extractor. platformHost is the listing
// platform's own host, excluded from website-link fallback.
func NewHeuristic(rules RuleSet, platformHost string, logger *slog.Logger) *Heuristic {
	return &Heuristic{
		rules:        rules,
		platformHost: strings.ToLower(platformHost),
		logger:       logger.With("component", "heuristic_extractor"),
	}
}

// Extract produces a best-effort record from the detail view's HTML and
// its full rendered text.
func (h *Heuristic) Extract(detailHTML, fullText string) types.BusinessRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(detailHTML))
	if err != nil {
		h.logger.Warn("detail HTML unparseable, regex fallbacks only", "error", err)
		doc = nil
	}

	// XPath rules share one parsed tree, built on first use.
	var xdoc *html.Node

	first := func(rules []Rule) string {
		for _, rule := range rules {
			var val string
			switch rule.Type {
			case "xpath":
				if xdoc == nil {
					xdoc, err = html.Parse(strings.NewReader(detailHTML))
					if err != nil {
						continue
					}
				}
				val = firstXPath(xdoc, rule.Selector)
			default:
				if doc == nil {
					continue
				}
				val = firstCSS(doc, rule)
			}
			if val = strings.TrimSpace(val); val != "" {
				return val
			}
		}
		return ""
	}

	rec := types.BusinessRecord{
		Name:         first(h.rules.Name),
		BusinessType: first(h.rules.BusinessType),
		Address:      first(h.rules.Address),
		Phone:        first(h.rules.Phone),
		Website:      first(h.rules.Website),
		Email:        strings.TrimPrefix(first(h.rules.Email), "mailto:"),
	}

	if rec.Phone == "" {
		rec.Phone = phonePattern.FindString(fullText)
	}
	if rec.Website == "" && doc != nil {
		rec.Website = h.firstExternalLink(doc)
	}
	if rec.Email == "" {
		rec.Email = emailPattern.FindString(fullText)
	}

	return rec
}

// firstCSS returns the first non-empty value matching a css rule.
func firstCSS(doc *goquery.Document, rule Rule) string {
	var val string
	doc.Find(rule.Selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if rule.Attr != "" {
			val, _ = sel.Attr(rule.Attr)
		} else {
			val = sel.Text()
		}
		return strings.TrimSpace(val) == ""
	})
	return val
}

// firstXPath returns the first non-empty inner text matching an xpath rule.
func firstXPath(doc *html.Node, expr string) string {
	nodes, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return ""
	}
	for _, node := range nodes {
		if text := strings.TrimSpace(htmlquery.InnerText(node)); text != "" {
			return text
		}
	}
	return ""
}

// firstExternalLink returns the first absolute link whose host is not the
// listing platform itself.
func (h *Heuristic) firstExternalLink(doc *goquery.Document) string {
	var found string
	doc.Find(`a[href^="http"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		u, err := url.Parse(href)
		if err != nil || u.Host == "" {
			return true
		}
		host := strings.ToLower(u.Hostname())
		if host == h.platformHost || strings.HasSuffix(host, "."+h.platformHost) {
			return true
		}
		found = href
		return false
	})
	return found
}
