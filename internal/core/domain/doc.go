// Package domain contains the core business entities of the watcher service:
// passages, interactions, ingest reports and the domain error taxonomy.
// It has no dependencies on adapters or external services.
package domain
