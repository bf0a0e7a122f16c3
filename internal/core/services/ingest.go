package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campuswatch/watcher/internal/core/domain"
	"github.com/campuswatch/watcher/internal/core/ports/driven"
	"github.com/campuswatch/watcher/internal/core/ports/driving"
)

// Ensure IngestOrchestrator implements the interface.
var _ driving.IngestOrchestrator = (*IngestOrchestrator)(nil)

// DefaultEmbedBatch bounds one embedding request during ingestion.
const DefaultEmbedBatch = 50

// IngestOrchestrator coordinates the ingestion pipeline: crawl, extract,
// chunk, embed and index. At most one run is active at a time.
type IngestOrchestrator struct {
	crawler  driven.Crawler
	fetcher  driven.PageFetcher
	handbook driven.HandbookSource
	registry driven.NormaliserRegistry
	pipeline driven.PostProcessorPipeline
	embedder driven.EmbeddingService
	store    driven.VectorStore
	runs     driven.RunStore
	log      *zap.Logger

	embedBatch int

	mu      sync.Mutex
	running bool
	status  domain.IngestStatus
}

// IngestOption configures the orchestrator.
type IngestOption func(*IngestOrchestrator)

// WithEmbedBatch bounds how many passages go into one embedding request.
func WithEmbedBatch(size int) IngestOption {
	return func(o *IngestOrchestrator) {
		if size > 0 {
			o.embedBatch = size
		}
	}
}

// NewIngestOrchestrator creates an ingest orchestrator. The run store is
// optional; when nil, run history is not persisted.
func NewIngestOrchestrator(
	crawler driven.Crawler,
	fetcher driven.PageFetcher,
	handbook driven.HandbookSource,
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	runs driven.RunStore,
	log *zap.Logger,
	opts ...IngestOption,
) *IngestOrchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	o := &IngestOrchestrator{
		crawler:    crawler,
		fetcher:    fetcher,
		handbook:   handbook,
		registry:   registry,
		pipeline:   pipeline,
		embedder:   embedder,
		store:      store,
		runs:       runs,
		log:        log,
		embedBatch: DefaultEmbedBatch,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ingest runs one ingestion pass. Page-level failures are recorded in
// the report and never abort the run.
func (o *IngestOrchestrator) Ingest(ctx context.Context, opts domain.IngestOptions) (*domain.IngestReport, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, domain.ErrIngestInProgress
	}
	o.running = true
	o.status = domain.IngestStatus{Running: true}
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.status.Running = false
		o.mu.Unlock()
	}()

	// No selection means everything.
	if !opts.Website && !opts.Handbook {
		opts.Website = true
		opts.Handbook = true
	}
	if opts.Mode == "" {
		opts.Mode = domain.IngestIncremental
	}

	report := &domain.IngestReport{
		Mode:      opts.Mode,
		StartedAt: time.Now().UTC(),
	}

	if err := o.store.EnsureCollection(ctx, o.embedder.Dimensions()); err != nil {
		return nil, fmt.Errorf("ensuring collection: %w", err)
	}

	if opts.Website {
		if err := o.ingestWebsite(ctx, opts.Mode, report); err != nil {
			return nil, err
		}
	}

	if opts.Handbook {
		o.ingestHandbook(ctx, report)
	}

	report.FinishedAt = time.Now().UTC()

	if o.runs != nil {
		if err := o.runs.SaveReport(ctx, report); err != nil {
			o.log.Warn("saving run report failed", zap.Error(err))
		}
	}

	o.log.Info("ingest run complete",
		zap.String("mode", string(report.Mode)),
		zap.Int("pages_updated", report.PagesUpdated),
		zap.Int("pages_skipped", report.PagesSkipped),
		zap.Int("pages_failed", report.PagesFailed),
		zap.Int("handbook_passages", report.HandbookPassages),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}

// Status reports progress of the active run, or idle.
func (o *IngestOrchestrator) Status(_ context.Context) domain.IngestStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// ingestWebsite crawls the site and refreshes each discovered page.
// Only discovery failure aborts; per-page failures are recorded and the
// page's existing passages left untouched.
func (o *IngestOrchestrator) ingestWebsite(ctx context.Context, mode domain.IngestMode, report *domain.IngestReport) error {
	if mode == domain.IngestFull {
		if err := o.store.DeleteBySourceType(ctx, domain.SourceWebsite); err != nil {
			return fmt.Errorf("clearing website passages: %w", err)
		}
	}

	urls, err := o.crawler.Discover(ctx)
	if err != nil {
		return fmt.Errorf("discovering pages: %w", err)
	}
	o.log.Info("pages discovered", zap.Int("count", len(urls)))

	if mode == domain.IngestIncremental && len(urls) > 0 {
		// Sweep pages that disappeared from the crawl set so they stop
		// surfacing in answers.
		if err := o.store.DeleteStaleWebsite(ctx, urls); err != nil {
			o.log.Warn("stale page sweep failed", zap.Error(err))
		}
	}

	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := o.refreshPage(ctx, url)
		report.Pages = append(report.Pages, result)

		switch result.Outcome {
		case domain.PageUpdated:
			report.PagesUpdated++
		case domain.PageSkipped:
			report.PagesSkipped++
		case domain.PageFailed:
			report.PagesFailed++
		}

		o.mu.Lock()
		o.status.PagesProcessed++
		if result.Outcome != domain.PageUpdated {
			o.status.ErrorCount++
		}
		o.mu.Unlock()
	}
	return nil
}

// refreshPage replaces one page's passages with a freshly extracted set.
// The delete happens only after extraction and embedding succeed, so a
// broken page keeps its last good passages.
func (o *IngestOrchestrator) refreshPage(ctx context.Context, url string) domain.PageResult {
	result := domain.PageResult{URL: url}

	raw, err := o.fetcher.Fetch(ctx, url)
	if err != nil {
		o.log.Warn("page fetch failed", zap.String("url", url), zap.Error(err))
		result.Outcome = domain.PageSkipped
		result.Error = err.Error()
		return result
	}

	doc, err := o.registry.Normalise(ctx, raw)
	if err != nil {
		o.log.Warn("page extraction failed", zap.String("url", url), zap.Error(err))
		result.Outcome = domain.PageSkipped
		result.Error = err.Error()
		return result
	}

	passages, err := o.pipeline.Process(ctx, doc)
	if err != nil {
		result.Outcome = domain.PageSkipped
		result.Error = err.Error()
		return result
	}
	if len(passages) == 0 {
		result.Outcome = domain.PageSkipped
		result.Error = "no passages produced"
		return result
	}

	if err := o.embedPassages(ctx, passages); err != nil {
		o.log.Warn("page embedding failed", zap.String("url", url), zap.Error(err))
		result.Outcome = domain.PageFailed
		result.Error = err.Error()
		return result
	}

	if err := o.store.DeleteByURL(ctx, url); err != nil {
		result.Outcome = domain.PageFailed
		result.Error = err.Error()
		return result
	}
	if err := o.store.Upsert(ctx, passages); err != nil {
		o.log.Error("page upsert failed after delete", zap.String("url", url), zap.Error(err))
		result.Outcome = domain.PageFailed
		result.Error = err.Error()
		return result
	}

	result.Outcome = domain.PageUpdated
	result.Passages = len(passages)
	o.log.Debug("page refreshed", zap.String("url", url), zap.Int("passages", len(passages)))
	return result
}

// ingestHandbook re-ingests the handbook PDF. A failure leaves existing
// handbook passages in place and is logged, not fatal.
func (o *IngestOrchestrator) ingestHandbook(ctx context.Context, report *domain.IngestReport) {
	raw, err := o.handbook.Load(ctx)
	if err != nil {
		o.log.Warn("handbook load failed", zap.Error(err))
		o.bumpErrorCount()
		return
	}

	doc, err := o.registry.Normalise(ctx, raw)
	if err != nil {
		o.log.Warn("handbook extraction failed", zap.Error(err))
		o.bumpErrorCount()
		return
	}

	passages, err := o.pipeline.Process(ctx, doc)
	if err != nil || len(passages) == 0 {
		o.log.Warn("handbook chunking produced nothing", zap.Error(err))
		o.bumpErrorCount()
		return
	}

	if err := o.embedPassages(ctx, passages); err != nil {
		o.log.Warn("handbook embedding failed", zap.Error(err))
		o.bumpErrorCount()
		return
	}

	if err := o.store.DeleteBySourceType(ctx, domain.SourceHandbook); err != nil {
		o.log.Warn("clearing handbook passages failed", zap.Error(err))
		o.bumpErrorCount()
		return
	}
	if err := o.store.Upsert(ctx, passages); err != nil {
		o.log.Error("handbook upsert failed after delete", zap.Error(err))
		o.bumpErrorCount()
		return
	}

	report.HandbookPassages = len(passages)
	o.log.Info("handbook ingested", zap.Int("passages", len(passages)))
}

// embedPassages fills in the vector for every passage in place, at most
// embedBatch texts per request.
func (o *IngestOrchestrator) embedPassages(ctx context.Context, passages []domain.Passage) error {
	for start := 0; start < len(passages); start += o.embedBatch {
		end := start + o.embedBatch
		if end > len(passages) {
			end = len(passages)
		}
		batch := passages[start:end]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Text
		}

		vectors, err := o.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("%w: got %d vectors for %d passages", domain.ErrEmbedding, len(vectors), len(batch))
		}

		for i := range batch {
			batch[i].Vector = vectors[i]
		}
	}
	return nil
}

func (o *IngestOrchestrator) bumpErrorCount() {
	o.mu.Lock()
	o.status.ErrorCount++
	o.mu.Unlock()
}
