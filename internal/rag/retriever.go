package rag

import (
	"context"
	"fmt"
)

// Retriever fetches the single most relevant stored record for a query.
// A nil result with a nil error means no relevant record exists — an
// expected outcome for sparse corpus regions, not a failure.
type Retriever struct {
	// store performs the nearest-neighbor search.
	store VectorStore

	// topK is the number of candidates requested from the store. The
	// retriever only ever surfaces the best one.
	topK int
}

// NewRetriever constructs a Retriever over the given VectorStore.
// topK values below 1 fall back to 1 — the answering flow needs only the
// single best match.
func NewRetriever(store VectorStore, topK int) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	if topK <= 0 {
		topK = 1
	}
	return &Retriever{store: store, topK: topK}, nil
}

// Retrieve returns the best match for the query, or nil when the store has
// no match. Transport failures are returned as errors so the caller can
// surface a turn-level notice; callers treat both cases as "no passage".
func (r *Retriever) Retrieve(ctx context.Context, query string) (*Result, error) {
	hits, err := r.store.Nearest(ctx, query, r.topK)
	if err != nil {
		return nil, fmt.Errorf("rag: retrieval failed: %w", err)
	}

	for _, h := range hits {
		if h.Passage.Content != "" {
			hit := h
			return &hit, nil
		}
	}

	return nil, nil
}
