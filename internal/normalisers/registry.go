package normalisers

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/campuswatch/watcher/internal/core/domain"
	"github.com/campuswatch/watcher/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps MIME types to normalisers. Later registrations for the
// same MIME type win.
type Registry struct {
	byMIME map[string]driven.Normaliser
}

// NewRegistry creates an empty normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		byMIME: make(map[string]driven.Normaliser),
	}
}

// Register adds a normaliser for each of its supported MIME types.
func (r *Registry) Register(n driven.Normaliser) {
	for _, mt := range n.SupportedMIMETypes() {
		r.byMIME[mt] = n
	}
}

// Normalise dispatches to the normaliser registered for the page's MIME
// type. Charset parameters (e.g. "text/html; charset=utf-8") are
// stripped before lookup.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawPage) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	mt := canonicalMIME(raw.MIMEType)
	n, ok := r.byMIME[mt]
	if !ok {
		return nil, fmt.Errorf("no normaliser for MIME type %q: %w", raw.MIMEType, domain.ErrInvalidInput)
	}
	return n.Normalise(ctx, raw)
}

// SupportedMIMETypes returns all MIME types with a registered normaliser.
func (r *Registry) SupportedMIMETypes() []string {
	types := make([]string, 0, len(r.byMIME))
	for mt := range r.byMIME {
		types = append(types, mt)
	}
	return types
}

func canonicalMIME(raw string) string {
	if raw == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	return mt
}
