// Package driving provides interfaces for application entry points
// (primary/inbound ports): answering queries and running ingestion.
package driving
