// Package chunker provides the sliding-window chunking processor.
//
// Web pages are chunked by lines so that headings stay attached to the
// prose beneath them, and each chunk is prefixed with its source URL so
// the provenance survives embedding. Handbook text has no meaningful
// line structure after PDF extraction, so it is chunked by characters.
package chunker

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/campuswatch/watcher/internal/core/domain"
)

// Line-window defaults for web pages.
const (
	DefaultWebWindowLines  = 12
	DefaultWebOverlapLines = 4
	DefaultWebMinLines     = 3
)

// Character-window defaults for monolithic documents.
const (
	DefaultDocWindowChars  = 800
	DefaultDocOverlapChars = 100
)

// Processor splits document content into overlapping passages.
// It implements the PostProcessor interface.
type Processor struct {
	webWindow  int
	webOverlap int
	webMin     int

	docWindow  int
	docOverlap int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithWebWindow sets the line-window parameters for web pages.
func WithWebWindow(window, overlap, minLines int) Option {
	return func(p *Processor) {
		if window > 0 {
			p.webWindow = window
		}
		if overlap >= 0 {
			p.webOverlap = overlap
		}
		if minLines > 0 {
			p.webMin = minLines
		}
	}
}

// WithDocWindow sets the character-window parameters for documents.
func WithDocWindow(window, overlap int) Option {
	return func(p *Processor) {
		if window > 0 {
			p.docWindow = window
		}
		if overlap >= 0 {
			p.docOverlap = overlap
		}
	}
}

// New creates a chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		webWindow:  DefaultWebWindowLines,
		webOverlap: DefaultWebOverlapLines,
		webMin:     DefaultWebMinLines,
		docWindow:  DefaultDocWindowChars,
		docOverlap: DefaultDocOverlapChars,
	}

	for _, opt := range opts {
		opt(p)
	}

	// The overlap must leave a positive step.
	if p.webOverlap >= p.webWindow {
		p.webOverlap = p.webWindow / 4
	}
	if p.docOverlap >= p.docWindow {
		p.docOverlap = p.docWindow / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into passages. Input passages
// are ignored; this processor creates new ones from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Passage) ([]domain.Passage, error) {
	if doc == nil || doc.Content == "" {
		return nil, nil
	}

	if doc.SourceType == domain.SourceWebsite {
		return p.chunkByLines(doc), nil
	}
	return p.chunkByChars(doc), nil
}

// chunkByLines slides a line window over the page text. Windows
// shorter than the minimum are navigation scraps and are dropped.
// Every passage carries a Source/Content prefix so the URL is part of
// the embedded text.
func (p *Processor) chunkByLines(doc *domain.Document) []domain.Passage {
	var lines []string
	for _, line := range strings.Split(doc.Content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	step := p.webWindow - p.webOverlap
	var passages []domain.Passage
	position := 0

	for i := 0; i < len(lines); i += step {
		end := i + p.webWindow
		if end > len(lines) {
			end = len(lines)
		}
		window := lines[i:end]
		if len(window) < p.webMin {
			continue
		}

		text := "Source: " + doc.URL + "\nContent: " + strings.Join(window, "\n")
		passages = append(passages, domain.Passage{
			ID:         uuid.New().String(),
			Text:       text,
			URL:        doc.URL,
			SourceType: doc.SourceType,
			Position:   position,
		})
		position++
	}

	return passages
}

// chunkByChars slides a rune window over the document text. The text is
// collapsed to single-space-joined prose first, so a window boundary can
// never split a multi-byte rune and consecutive windows overlap by
// exactly docOverlap runes.
func (p *Processor) chunkByChars(doc *domain.Document) []domain.Passage {
	runes := []rune(strings.Join(strings.Fields(doc.Content), " "))
	if len(runes) == 0 {
		return nil
	}
	step := p.docWindow - p.docOverlap

	passages := make([]domain.Passage, 0, len(runes)/step+1)
	position := 0

	for start := 0; start < len(runes); start += step {
		end := start + p.docWindow
		if end > len(runes) {
			end = len(runes)
		}

		passages = append(passages, domain.Passage{
			ID:         uuid.New().String(),
			Text:       string(runes[start:end]),
			URL:        doc.URL,
			SourceType: doc.SourceType,
			Position:   position,
		})
		position++
	}

	return passages
}
