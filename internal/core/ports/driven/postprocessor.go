package driven

import (
	"context"

	"github.com/campuswatch/watcher/internal/core/domain"
)

// PostProcessor processes document content to produce passages.
// PostProcessors are chained in a pipeline (e.g., chunking, filtering).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and the passages produced so far.
	// A processor that creates passages (the chunker) receives nil and
	// returns new passages; a processor that modifies passages receives
	// and returns them.
	Process(ctx context.Context, doc *domain.Document, passages []domain.Passage) ([]domain.Passage, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order and
	// returns the final passages.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Passage, error)
}
