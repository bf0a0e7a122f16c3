package driven

import (
	"context"

	"github.com/campuswatch/watcher/internal/core/domain"
)

// Crawler discovers candidate pages for ingestion.
type Crawler interface {
	// Discover fetches the configured seed URLs, enumerates same-domain
	// anchors matching the relevance keywords, and returns the combined
	// set of absolute URLs (seeds included), capped at the configured
	// page limit. A failure on one seed yields an empty discovery set
	// for that seed only and never aborts the run.
	Discover(ctx context.Context) ([]string, error)
}

// PageFetcher retrieves one page's raw bytes.
type PageFetcher interface {
	// Fetch downloads the page at url. Network errors and non-2xx
	// statuses return an error wrapping domain.ErrScrape; the caller
	// must leave existing index entries for the URL untouched.
	Fetch(ctx context.Context, url string) (*domain.RawPage, error)
}

// HandbookSource provides the static handbook document.
type HandbookSource interface {
	// Load reads the handbook file from disk.
	Load(ctx context.Context) (*domain.RawPage, error)

	// Watch emits a signal whenever the handbook file changes on disk.
	// The channel closes when ctx is cancelled.
	Watch(ctx context.Context) (<-chan struct{}, error)

	// Close releases resources.
	Close() error
}
