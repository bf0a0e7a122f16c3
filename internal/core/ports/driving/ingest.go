package driving

import (
	"context"

	"github.com/campuswatch/watcher/internal/core/domain"
)

// IngestOrchestrator coordinates the ingestion pipeline:
// crawl, extract, chunk, embed and index.
type IngestOrchestrator interface {
	// Ingest runs one ingestion pass. Returns domain.ErrIngestInProgress
	// when a run is already active. Page-level errors never abort the
	// run; they are recorded in the report.
	Ingest(ctx context.Context, opts domain.IngestOptions) (*domain.IngestReport, error)

	// Status reports progress of the active run, or idle.
	Status(ctx context.Context) domain.IngestStatus
}
