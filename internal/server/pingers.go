package server

import (
	"context"
	"fmt"

	"github.com/askdocs/askdocs-go/internal/rag"
)

// StorePinger probes the vector store through its health check.
// It satisfies the Pinger interface and is used by GET /readyz.
type StorePinger struct {
	// store is the vector store to probe.
	store rag.VectorStore
}

// NewStorePinger constructs a StorePinger for the given vector store.
func NewStorePinger(store rag.VectorStore) *StorePinger {
	return &StorePinger{store: store}
}

// Name returns the collaborator label used in readiness responses.
func (p *StorePinger) Name() string { return "qdrant" }

// Ping runs the store's health check RPC.
func (p *StorePinger) Ping(ctx context.Context) error {
	if err := p.store.Healthz(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// EmbedderPinger probes the embedding backend by requesting one vector for a
// short fixed text. The generation backends are deliberately not probed:
// a generate call costs tokens, and the cascade already masks a failing
// backend at request time.
type EmbedderPinger struct {
	// embedder is the embedding client to probe.
	embedder rag.Embedder
}

// NewEmbedderPinger constructs an EmbedderPinger for the given embedder.
func NewEmbedderPinger(embedder rag.Embedder) *EmbedderPinger {
	return &EmbedderPinger{embedder: embedder}
}

// Name returns the collaborator label used in readiness responses.
func (p *EmbedderPinger) Name() string { return "embedder" }

// Ping requests a single embedding and checks a vector came back.
func (p *EmbedderPinger) Ping(ctx context.Context) error {
	vectors, err := p.embedder.Embed(ctx, []string{"ping"})
	if err != nil {
		return fmt.Errorf("embedding probe failed: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return fmt.Errorf("embedding probe returned no vector")
	}
	return nil
}
