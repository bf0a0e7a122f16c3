package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBadSignature indicates an inbound webhook request failed the
	// signature check. Terminal: no further processing happens.
	ErrBadSignature = errors.New("invalid request signature")

	// ErrScrape indicates a network or parse failure on one page.
	// The page is skipped and its existing indexed data preserved.
	ErrScrape = errors.New("scrape failed")

	// ErrNoContent indicates extraction yielded no usable text.
	// Treated the same as a scrape failure: leave existing data alone.
	ErrNoContent = errors.New("no content extracted")

	// ErrEmbedding indicates the embedding service failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndex indicates a vector store write failed.
	ErrIndex = errors.New("index write failed")

	// ErrGeneration indicates the generation service failed.
	ErrGeneration = errors.New("generation failed")

	// ErrIngestInProgress indicates an ingest run is already running.
	ErrIngestInProgress = errors.New("ingest in progress")

	// ErrDispatcherSaturated indicates the background task queue is full.
	ErrDispatcherSaturated = errors.New("dispatcher queue full")

	// ErrDispatcherStopped indicates the dispatcher is shut down.
	ErrDispatcherStopped = errors.New("dispatcher stopped")
)
