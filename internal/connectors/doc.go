// Package connectors provides implementations of the source interfaces
// for the two knowledge sources: the university website crawl and the
// local handbook PDF.
package connectors
