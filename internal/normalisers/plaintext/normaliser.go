// Package plaintext normalises pages already served as plain text.
package plaintext

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/campuswatch/watcher/internal/core/domain"
	"github.com/campuswatch/watcher/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text pages. The crawl occasionally lands on
// endpoints serving text/plain; their content needs no DOM cleanup,
// only whitespace normalisation.
type Normaliser struct{}

// New creates a plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// Normalise converts a raw page into a document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawPage) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	var lines []string
	for _, line := range strings.Split(string(raw.Content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoContent, raw.URL)
	}

	return &domain.Document{
		URL:        raw.URL,
		SourceType: domain.SourceWebsite,
		Title:      titleFromURL(raw.URL),
		Content:    strings.Join(lines, "\n"),
		FetchedAt:  time.Now().UTC(),
	}, nil
}

// titleFromURL derives a readable title from the last path segment.
func titleFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	base := path.Base(strings.TrimSuffix(u.Path, "/"))
	if base == "." || base == "/" || base == "" {
		return u.Host
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.ReplaceAll(base, "-", " ")
	base = strings.ReplaceAll(base, "_", " ")
	return base
}
