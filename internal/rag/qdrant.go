package rag

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this collection.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements VectorStore backed by a Qdrant instance. It embeds
// record and query text itself, so callers hand it plain text only.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// embedder converts record and query text into vectors.
	embedder Embedder

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig
}

// NewQdrantStore creates a QdrantStore. The collection is not touched here;
// call EnsureCollection or Reset before inserting.
func NewQdrantStore(embedder Embedder, cfg *QdrantConfig) (*QdrantStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("rag: collection name must not be empty")
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	clientCfg := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	}

	client, err := qdrant.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("rag: failed to create qdrant client: %w", err)
	}

	return &QdrantStore{client: client, embedder: embedder, cfg: cfg}, nil
}

// EnsureCollection creates the Qdrant collection if it does not already exist.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("rag: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}
	return s.createCollection(ctx)
}

// Reset deletes the collection if present and recreates it empty.
func (s *QdrantStore) Reset(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("rag: failed to check collection existence: %w", err)
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, s.cfg.Collection); err != nil {
			return fmt.Errorf("rag: failed to delete collection %q: %w", s.cfg.Collection, err)
		}
	}
	return s.createCollection(ctx)
}

func (s *QdrantStore) createCollection(ctx context.Context) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("rag: failed to create collection %q: %w", s.cfg.Collection, err)
	}
	return nil
}

// Insert embeds one record and upserts it under the given point identifier.
func (s *QdrantStore) Insert(ctx context.Context, doc Document, id string) error {
	vectors, err := s.embedder.Embed(ctx, []string{embedText(doc)})
	if err != nil {
		return fmt.Errorf("rag: embedding record %s failed: %w", doc.ChunkID, err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("rag: embedder returned no vector for record %s", doc.ChunkID)
	}

	payload := map[string]interface{}{
		"chunk_id": doc.ChunkID,
		"content":  doc.Content,
		"source":   doc.Source,
	}
	if doc.Question != "" {
		payload["question"] = doc.Question
	}
	if doc.Category != "" {
		payload["category"] = doc.Category
	}
	for k, v := range doc.Metadata {
		payload[k] = v
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(id),
				Vectors: qdrant.NewVectors(vectors[0]...),
				Payload: qdrant.NewValueMap(payload),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("rag: upsert of record %s failed: %w", doc.ChunkID, err)
	}

	return nil
}

// Nearest embeds the query text and runs a cosine similarity search.
// Qdrant reports a score on every hit, so Score is always set here.
func (s *QdrantStore) Nearest(ctx context.Context, queryText string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 1
	}

	vectors, err := s.embedder.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("rag: embedding query failed: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("rag: embedder returned no vector for query")
	}

	limit := uint64(topK)
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(vectors[0]...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("rag: nearest query failed: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		doc := Document{Metadata: make(map[string]string)}
		if p := h.Payload; p != nil {
			for k, v := range p {
				switch k {
				case "chunk_id":
					doc.ChunkID = v.GetStringValue()
				case "content":
					doc.Content = v.GetStringValue()
				case "source":
					doc.Source = v.GetStringValue()
				case "question":
					doc.Question = v.GetStringValue()
				case "category":
					doc.Category = v.GetStringValue()
				default:
					doc.Metadata[k] = v.GetStringValue()
				}
			}
		}
		score := h.Score
		results = append(results, Result{Passage: doc, Score: &score})
	}

	return results, nil
}

// Healthz checks connectivity to the Qdrant server.
func (s *QdrantStore) Healthz(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("rag: qdrant health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// embedText renders the text a record is indexed under. FAQ records are
// indexed by question and answer together so either phrasing matches.
func embedText(doc Document) string {
	if doc.IsFAQ() {
		return doc.Question + "\n" + doc.Content
	}
	return doc.Content
}
