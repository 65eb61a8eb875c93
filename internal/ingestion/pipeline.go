// Package ingestion implements the corpus ingestion pipeline. Chunked
// documents are inserted into the vector store by a bounded worker pool, each
// under a fresh random point id. A failed insert is recorded per chunk and
// never aborts the rest of the batch. This pipeline is invoked by the
// `askdocs ingest` CLI command.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/askdocs/askdocs-go/internal/logging"
	"github.com/askdocs/askdocs-go/internal/metrics"
	"github.com/askdocs/askdocs-go/internal/rag"
)

const (
	// MaxWorkers caps the insert pool regardless of core count.
	MaxWorkers = 32

	// DefaultSettleCorpus is the post-ingest settle delay for document corpora.
	DefaultSettleCorpus = 3 * time.Second

	// DefaultSettleFAQ is the post-ingest settle delay for FAQ batches, which
	// are small enough to index faster.
	DefaultSettleFAQ = 2 * time.Second
)

// Config holds the tunables for the ingestion pipeline.
type Config struct {
	// Workers bounds the insert worker pool. Defaults to min(32, NumCPU).
	Workers int

	// Rate throttles store inserts per second across all workers.
	// Zero means unlimited.
	Rate int

	// Metrics counts inserted and failed chunks. Nil disables recording.
	Metrics *metrics.Metrics
}

// Failure records a single chunk that could not be inserted.
type Failure struct {
	// ChunkID is the stable chunk identifier ("<source>_<ordinal>").
	ChunkID string
	// Err is the insert error for this chunk.
	Err error
}

// Report summarises one Run: how many chunks landed and which did not.
type Report struct {
	// Succeeded is the number of chunks inserted without error.
	Succeeded int
	// Failed lists every chunk that could not be inserted, in completion order.
	Failed []Failure
}

// Pipeline inserts chunked documents into a vector store concurrently.
type Pipeline struct {
	// store persists the documents.
	store rag.VectorStore
	// workers is the resolved pool size.
	workers int
	// limiter throttles inserts when configured, nil otherwise.
	limiter *rate.Limiter
	// metrics counts inserts, nil-safe.
	metrics *metrics.Metrics
}

// NewPipeline constructs a Pipeline from the provided store and config.
func NewPipeline(store rag.VectorStore, cfg *Config) (*Pipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > MaxWorkers {
			workers = MaxWorkers
		}
	}
	if workers < 1 {
		workers = 1
	}

	var limiter *rate.Limiter
	if cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Rate)
	}

	return &Pipeline{
		store:   store,
		workers: workers,
		limiter: limiter,
		metrics: cfg.Metrics,
	}, nil
}

// Workers reports the resolved worker pool size.
func (p *Pipeline) Workers() int {
	return p.workers
}

// Run inserts every document through the worker pool and blocks until each
// insert has settled, then returns the per-chunk report. Individual insert
// failures land in the report; Run itself only errors when the pool cannot
// be created.
func (p *Pipeline) Run(ctx context.Context, docs []rag.Document) (*Report, error) {
	report := &Report{}
	if len(docs) == 0 {
		return report, nil
	}

	pool, err := ants.NewPool(p.workers)
	if err != nil {
		return nil, fmt.Errorf("ingestion: create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(chunkID string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Failed = append(report.Failed, Failure{ChunkID: chunkID, Err: err})
			p.metrics.InsertFailed()
			return
		}
		report.Succeeded++
		p.metrics.ChunkIngested()
	}

	for _, doc := range docs {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			record(doc.ChunkID, p.insert(ctx, doc))
		})
		if submitErr != nil {
			wg.Done()
			record(doc.ChunkID, fmt.Errorf("ingestion: submit: %w", submitErr))
		}
	}
	wg.Wait()

	log := logging.FromContext(ctx)
	log.Info("ingestion: batch complete",
		slog.Int("chunks", len(docs)),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", len(report.Failed)),
		slog.Int("workers", p.workers),
	)
	for _, f := range report.Failed {
		log.Warn("ingestion: chunk insert failed",
			slog.String("chunk_id", f.ChunkID),
			slog.Any("error", f.Err),
		)
	}

	return report, nil
}

// insert stores one document under a fresh random point id, honouring the
// rate limiter when one is configured.
func (p *Pipeline) insert(ctx context.Context, doc rag.Document) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("ingestion: rate limit wait: %w", err)
		}
	}
	if err := p.store.Insert(ctx, doc, uuid.NewString()); err != nil {
		return fmt.Errorf("ingestion: insert %s: %w", doc.ChunkID, err)
	}
	return nil
}

// Settle blocks for the given duration so the vector index can absorb a bulk
// insert before the first query lands. Cancelling ctx ends the wait early.
func Settle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
