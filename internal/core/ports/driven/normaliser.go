package driven

import (
	"context"

	"github.com/campuswatch/watcher/internal/core/domain"
)

// Normaliser transforms raw pages into plain-text documents.
// Each normaliser handles specific MIME types (e.g., HTML, PDF).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Normalise extracts clean text from a raw page. A network-corrupt
	// or unparseable page yields an error wrapping domain.ErrScrape or
	// domain.ErrNoContent, never a partial document.
	Normalise(ctx context.Context, raw *domain.RawPage) (*domain.Document, error)
}

// NormaliserRegistry selects the appropriate normaliser for a page
// based on its MIME type.
type NormaliserRegistry interface {
	// Normalise transforms a raw page using the best matching normaliser.
	Normalise(ctx context.Context, raw *domain.RawPage) (*domain.Document, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
