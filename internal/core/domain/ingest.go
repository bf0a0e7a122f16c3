package domain

import "time"

// IngestMode selects how the website portion of an ingest run treats
// existing passages.
type IngestMode string

const (
	// IngestIncremental refreshes page by page, preserving existing
	// passages for any page that fails to scrape. The default and the
	// safer mode.
	IngestIncremental IngestMode = "incremental"

	// IngestFull deletes all website passages up front and rebuilds
	// from scratch. Used when no existing per-page state is trusted.
	IngestFull IngestMode = "full"
)

// PageOutcome classifies the result of processing one candidate URL.
type PageOutcome string

const (
	// PageUpdated means the page's passages were replaced successfully.
	PageUpdated PageOutcome = "updated"

	// PageSkipped means extraction failed or produced no content; the
	// page's existing passages were left untouched.
	PageSkipped PageOutcome = "skipped"

	// PageFailed means embedding or the store write failed after
	// extraction succeeded. If the delete completed before the insert
	// failed, the page has no passages until the next successful run.
	PageFailed PageOutcome = "failed"
)

// PageResult records the outcome for one URL within an ingest run.
type PageResult struct {
	URL      string
	Outcome  PageOutcome
	Passages int
	Error    string
}

// IngestOptions selects what an ingest run covers.
type IngestOptions struct {
	// Mode is incremental or full. Zero value means incremental.
	Mode IngestMode

	// Website enables the crawl-and-refresh pass over the site.
	Website bool

	// Handbook enables re-ingestion of the handbook PDF.
	Handbook bool
}

// IngestReport summarises a completed ingest run.
type IngestReport struct {
	Mode             IngestMode
	StartedAt        time.Time
	FinishedAt       time.Time
	Pages            []PageResult
	PagesUpdated     int
	PagesSkipped     int
	PagesFailed      int
	HandbookPassages int
}

// IngestStatus reports progress of a running ingest, or idle.
type IngestStatus struct {
	Running        bool
	PagesProcessed int
	ErrorCount     int
}
