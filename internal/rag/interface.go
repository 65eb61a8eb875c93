// Package rag defines the interfaces for retrieval-augmented answering
// components: vector storage, nearest-passage retrieval, and embedding.
// Concrete implementations (Qdrant, etc.) satisfy these interfaces so the
// session layer never depends on a specific backend.
package rag

import (
	"context"
)

// Document is a unit of stored or retrieved knowledge: a corpus passage, or
// an FAQ entry when the corpus is structured question/answer pairs.
type Document struct {
	// ChunkID identifies the record within its source ("<source>_<index>").
	ChunkID string

	// Content is the grounding text: the passage text, or the FAQ answer.
	Content string

	// Question is the canonical question for FAQ records; empty for passages.
	Question string

	// Category is the FAQ category label; empty for passages.
	Category string

	// Source is the origin file or corpus name of the record.
	Source string

	// Metadata holds arbitrary key-value pairs (title, format, etc.).
	Metadata map[string]string
}

// IsFAQ reports whether the document is a structured question/answer record.
func (d Document) IsFAQ() bool {
	return d.Question != ""
}

// Result is a single retrieval hit.
type Result struct {
	// Passage is the retrieved record. Its Content is never empty.
	Passage Document

	// Score is the store-reported relevance in [0,1]. Nil when the store
	// did not report one — unknown is not zero confidence.
	Score *float32
}

// VectorStore is the interface to the external vector index. The store owns
// embedding: Insert and Nearest receive text, never vectors, so the caller
// stays independent of the embedding scheme.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not already exist.
	EnsureCollection(ctx context.Context) error

	// Reset deletes and recreates the collection. Records are never updated
	// in place; delete-and-recreate is the only update path.
	Reset(ctx context.Context) error

	// Insert stores one record under the given unique point identifier.
	// Inserting the same identifier twice is an idempotent overwrite.
	Insert(ctx context.Context, doc Document, id string) error

	// Nearest returns the topK most similar records for the query text,
	// most similar first. An empty result is a normal outcome.
	Nearest(ctx context.Context, queryText string, topK int) ([]Result, error)

	// Healthz checks connectivity to the backing service.
	Healthz(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
