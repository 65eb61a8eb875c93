package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/askdocs/askdocs-go/internal/budget"
	"github.com/askdocs/askdocs-go/internal/embedder"
	"github.com/askdocs/askdocs-go/internal/generate"
	"github.com/askdocs/askdocs-go/internal/metrics"
	"github.com/askdocs/askdocs-go/internal/provider"
	"github.com/askdocs/askdocs-go/internal/rag"
	"github.com/askdocs/askdocs-go/internal/session"
	"github.com/askdocs/askdocs-go/internal/store"
)

// defaultCollection is the Qdrant collection used when ASKDOCS_COLLECTION
// is unset.
const defaultCollection = "passages"

// buildStore constructs the embedder and the Qdrant-backed vector store from
// the environment. The caller owns the store and must Close it.
func buildStore(log *slog.Logger) (*rag.QdrantStore, rag.Embedder, error) {
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}

	backend := embedder.ResolveBackend()
	host := getEnvOrDefault("ASKDOCS_QDRANT_HOST", "localhost")
	port := getEnvInt("ASKDOCS_QDRANT_PORT", 6334)
	collection := getEnvOrDefault("ASKDOCS_COLLECTION", defaultCollection)
	vectorSize := uint64(embedder.DefaultDimensions(backend)) //nolint:gosec // dimensions are bounded

	qs, err := rag.NewQdrantStore(emb, &rag.QdrantConfig{
		Host:       host,
		Port:       port,
		Collection: collection,
		VectorSize: vectorSize,
		APIKey:     os.Getenv("ASKDOCS_QDRANT_API_KEY"),
		UseTLS:     os.Getenv("ASKDOCS_QDRANT_USE_TLS") == "true",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
	}
	log.Info("qdrant store ready",
		slog.String("host", host),
		slog.Int("port", port),
		slog.String("collection", collection),
	)

	return qs, emb, nil
}

// buildEngine wires the full question pipeline from the environment:
// embedder, vector store, retriever, generation cascade, and engine.
// The returned cleanup closes the store and must be deferred by the caller.
// m may be nil when the command does not export metrics.
func buildEngine(log *slog.Logger, m *metrics.Metrics) (*session.Engine, func(), error) {
	qs, _, err := buildStore(log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = qs.Close() }

	retriever, err := rag.NewRetriever(qs, 1)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	providerCfg := provider.ConfigFromEnv()
	if err := providerCfg.Validate(); err != nil {
		cleanup()
		return nil, nil, err
	}

	generator, err := generate.New(&generate.Config{
		Models:  generate.ModelsFromEnv(),
		Factory: generate.ProviderFactory(providerCfg),
		Budget:  budget.FromEnv(),
		Metrics: m,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	log.Info("generation cascade configured",
		slog.String("backend", string(providerCfg.Backend)),
		slog.Any("models", generator.Models()),
	)

	engine, err := session.NewEngine(retriever, generator, m)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return engine, cleanup, nil
}

// openHistory opens the turn history store. ASKDOCS_HISTORY_DB overrides the
// default path (~/.askdocs/history.db); set it to "disabled" to turn history
// off. A store that cannot be opened disables history with a warning rather
// than failing the command. The returned cleanup is always safe to defer.
func openHistory(log *slog.Logger) (store.HistoryStore, func()) {
	dbPath := os.Getenv("ASKDOCS_HISTORY_DB")
	if dbPath == "disabled" {
		log.Info("history: disabled via ASKDOCS_HISTORY_DB=disabled")
		return nil, func() {}
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil, func() {}
		}
	}

	hs, err := store.Open(dbPath)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil, func() {}
	}
	log.Info("history: store opened", slog.String("path", dbPath))
	return hs, func() { _ = hs.Close() }
}

// getEnvOrDefault returns the environment variable value or a fallback.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the environment variable parsed as an int, or a fallback
// when unset or unparseable.
func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
