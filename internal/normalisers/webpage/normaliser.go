// Package webpage extracts clean text from university web pages.
//
// Extraction is precision-first: fee tables and generic tables are
// rewritten into labelled text blocks before boilerplate is stripped,
// so tabular data survives flattening into plain text.
package webpage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/campuswatch/watcher/internal/core/domain"
	"github.com/campuswatch/watcher/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Config controls noise removal and content targeting.
type Config struct {
	// NoiseSelectors are removed before text extraction. Supported
	// forms: ".class", "#id", "tag".
	NoiseSelectors []string

	// MainContentID is the element id holding the page's main content.
	// When found, text is extracted from it alone.
	MainContentID string
}

// Normaliser handles HTML pages.
type Normaliser struct {
	cfg Config
}

// New creates a webpage normaliser.
func New(cfg Config) *Normaliser {
	return &Normaliser{cfg: cfg}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Normalise converts an HTML page to a plain-text document.
//
// The rewrite order matters: pricing tables and generic tables are
// flattened into text while their markup is still intact, then noise
// elements are removed, then text is pulled from the main content
// element (falling back to the whole page).
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawPage) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	root, err := html.Parse(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w: %v", raw.URL, domain.ErrScrape, err)
	}

	title := elementText(findFirst(root, matchTag("title")))

	rewritePricingTables(root)
	rewriteTables(root)

	for _, sel := range n.cfg.NoiseSelectors {
		removeAll(root, matchSelector(sel))
	}

	content := root
	if n.cfg.MainContentID != "" {
		if main := findFirst(root, matchID(n.cfg.MainContentID)); main != nil {
			content = main
		}
	}

	text := textLines(content)
	if text == "" {
		return nil, fmt.Errorf("normalise %s: %w", raw.URL, domain.ErrNoContent)
	}

	return &domain.Document{
		URL:        raw.URL,
		SourceType: domain.SourceWebsite,
		Title:      title,
		Content:    text,
		FetchedAt:  time.Now(),
	}, nil
}

// rewritePricingTables flattens fee widgets into labelled text blocks.
// The widget markup nests plan names, prices and feature lists in
// separate panels; flattened naively they lose their association, so
// each widget becomes one block listing all three.
func rewritePricingTables(root *html.Node) {
	for _, pricing := range findAll(root, matchClass("fusion-pricing-table")) {
		headers := collectTexts(pricing, matchClass("panel-heading"))
		prices := collectTexts(pricing, matchClass("panel-body"))
		features := collectTexts(pricing, matchClass("list-group-item"))

		block := fmt.Sprintf(
			"\n=== FEE/PRICING DATA ===\nPlans: %s\nPrices: %s\nDetails: %s\n========================\n",
			strings.Join(headers, ", "),
			strings.Join(prices, ", "),
			strings.Join(features, ", "),
		)
		replaceWithText(pricing, block)
	}
}

// rewriteTables flattens remaining tables row by row, cells joined
// with " | ".
func rewriteTables(root *html.Node) {
	for _, table := range findAll(root, matchTag("table")) {
		var b strings.Builder
		b.WriteString("\n--- TABLE DATA ---\n")
		for _, row := range findAll(table, matchTag("tr")) {
			cells := collectTexts(row, matchAnyTag("td", "th"))
			b.WriteString(strings.Join(cells, " | "))
			b.WriteString("\n")
		}
		b.WriteString("------------------\n")
		replaceWithText(table, b.String())
	}
}

// textLines extracts all text under n, one trimmed non-empty line per
// text run.
func textLines(n *html.Node) string {
	var parts []string
	walk(n, func(node *html.Node) bool {
		if node.Type == html.TextNode {
			parts = append(parts, node.Data)
		}
		return true
	})

	var lines []string
	for _, part := range parts {
		for _, line := range strings.Split(part, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// collectTexts returns the collapsed text of every descendant matching m.
func collectTexts(root *html.Node, m matcher) []string {
	var texts []string
	for _, node := range findAll(root, m) {
		if t := elementText(node); t != "" {
			texts = append(texts, t)
		}
	}
	return texts
}

// elementText returns the whitespace-collapsed text content of n.
func elementText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	walk(n, func(node *html.Node) bool {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteString(" ")
		}
		return true
	})
	return strings.Join(strings.Fields(b.String()), " ")
}
