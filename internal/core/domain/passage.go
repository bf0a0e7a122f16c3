package domain

import "time"

// SourceType distinguishes where a passage originated.
type SourceType string

const (
	// SourceHandbook marks passages extracted from the static handbook PDF.
	SourceHandbook SourceType = "handbook"

	// SourceWebsite marks passages scraped from the university website.
	SourceWebsite SourceType = "website"
)

// RawPage represents opaque bytes fetched from a source before extraction.
type RawPage struct {
	// URL is the original location. Empty for local documents.
	URL string

	// MIMEType is the content type (e.g., "text/html", "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// Document is the normalised plain-text form of a fetched page or file.
// It is the extractor's output, before chunking.
type Document struct {
	// URL is the original location. Empty for the handbook.
	URL string

	// SourceType tags the provenance of the document.
	SourceType SourceType

	// Title is the human-readable title, when one could be extracted.
	Title string

	// Content is the full normalised text.
	Content string

	// FetchedAt is when the raw page was retrieved.
	FetchedAt time.Time
}

// Passage is the unit of retrieval: one embedded chunk of text plus
// provenance. Passages are what the vector store holds.
type Passage struct {
	// ID is an opaque unique token.
	ID string

	// Text is the chunk content. Never empty for a stored passage.
	Text string

	// URL links back to the page the passage came from.
	// Empty for handbook passages.
	URL string

	// SourceType tags the provenance of the passage.
	SourceType SourceType

	// Position is the ordinal position within the source document.
	Position int

	// Vector is the embedding. Its dimensionality must match the
	// embedding service that produced it.
	Vector []float32
}

// ScoredPassage is a retrieval hit: a passage plus its similarity score.
// It exists only within one query's processing and is never persisted.
type ScoredPassage struct {
	Passage Passage
	Score   float32
}
