// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding, generation, the vector store,
// page sources, extraction, chunking and chat-platform delivery.
package driven
