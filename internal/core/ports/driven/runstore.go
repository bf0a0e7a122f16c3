package driven

import (
	"context"

	"github.com/campuswatch/watcher/internal/core/domain"
)

// RunStore records ingest run history.
// Optional: when nil, runs are simply not recorded.
type RunStore interface {
	// SaveReport persists a completed ingest report with its page results.
	SaveReport(ctx context.Context, report *domain.IngestReport) error

	// LastReport returns the most recent report, or domain.ErrNotFound
	// when no run has been recorded yet.
	LastReport(ctx context.Context) (*domain.IngestReport, error)

	// Close releases resources.
	Close() error
}
