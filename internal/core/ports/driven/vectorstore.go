package driven

import (
	"context"

	"github.com/campuswatch/watcher/internal/core/domain"
)

// VectorStore persists passages and supports similarity search plus
// exact-filter deletion by URL and source type.
//
// Invariant maintained by callers: at most one current generation of
// passages per URL. The delete-then-insert pair during a page refresh is
// the only moment stale and fresh passages could coexist.
type VectorStore interface {
	// EnsureCollection creates the passage collection and the keyword
	// lookup indexes on url and source_type if they do not exist.
	// Safe to call on every run.
	EnsureCollection(ctx context.Context, dimensions int) error

	// Upsert inserts the given passages. Every passage must carry a
	// vector of the collection's dimensionality and non-empty text.
	Upsert(ctx context.Context, passages []domain.Passage) error

	// DeleteByURL removes all passages tagged with exactly this URL.
	DeleteByURL(ctx context.Context, url string) error

	// DeleteBySourceType removes all passages of one source type.
	DeleteBySourceType(ctx context.Context, sourceType domain.SourceType) error

	// DeleteStaleWebsite removes website passages whose URL is not in
	// keepURLs. Used to sweep pages that disappeared from the crawl set.
	DeleteStaleWebsite(ctx context.Context, keepURLs []string) error

	// Search returns up to k passages nearest to the query vector,
	// already filtered to scores >= minScore, best first.
	Search(ctx context.Context, vector []float32, k int, minScore float32) ([]domain.ScoredPassage, error)

	// Count returns the number of stored passages, optionally filtered
	// to one URL. Pass an empty URL for the whole collection.
	Count(ctx context.Context, url string) (uint64, error)

	// Close releases resources.
	Close() error
}
