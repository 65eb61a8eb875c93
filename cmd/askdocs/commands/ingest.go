package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/askdocs/askdocs-go/internal/chunk"
	"github.com/askdocs/askdocs-go/internal/embedder"
	"github.com/askdocs/askdocs-go/internal/faq"
	"github.com/askdocs/askdocs-go/internal/ingestion"
	"github.com/askdocs/askdocs-go/internal/logging"
	"github.com/askdocs/askdocs-go/internal/rag"
)

// NewIngestCmd constructs the `askdocs ingest` command, which chunks a corpus
// (or loads an FAQ file) and inserts it into the Qdrant vector store.
func NewIngestCmd() *cobra.Command {
	var faqPath string
	var reset bool
	var maxChars int
	var workers int
	var insertRate int
	var settleSeconds int

	cmd := &cobra.Command{
		Use:   "ingest [corpus-path]",
		Short: "Ingest a document corpus or FAQ file into the vector store",
		Long: `Chunk a corpus of text, markdown, or PDF files and index the chunks into
the Qdrant vector store, or load a structured YAML FAQ file with --faq.

A corpus path may be a single file or a directory; directories are walked
recursively and files are ingested in lexical order. Chunks are inserted
concurrently through a bounded worker pool, and the command waits for the
vector index to settle before returning so an immediately following query
sees the new data.

Required environment variables:
  ASKDOCS_QDRANT_HOST   Qdrant server hostname (default: localhost)
  ASKDOCS_QDRANT_PORT   Qdrant gRPC port (default: 6334)
  ASKDOCS_COLLECTION    Collection name (default: passages)
  ASKDOCS_EMBEDDER      Embedding backend: ollama, openai, azure
  ASKDOCS_EMBED_*       Embedding overrides (see README)

Examples:
  askdocs ingest ./docs
  askdocs ingest ./docs --reset --max-chars 2000
  askdocs ingest --faq ./faq.yaml
  askdocs ingest ./docs --workers 8 --rate 50`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			if faqPath == "" && len(args) == 0 {
				return fmt.Errorf("ingest: a corpus path or --faq file is required")
			}
			if faqPath != "" && len(args) > 0 {
				return fmt.Errorf("ingest: a corpus path and --faq are mutually exclusive")
			}

			// Flags win over environment; environment wins over defaults.
			if !cmd.Flags().Changed("max-chars") {
				maxChars = getEnvInt("ASKDOCS_MAX_CHARS", chunk.DefaultMaxChars)
			}
			if !cmd.Flags().Changed("workers") {
				workers = getEnvInt("ASKDOCS_INGEST_WORKERS", 0)
			}
			if !cmd.Flags().Changed("rate") {
				insertRate = getEnvInt("ASKDOCS_INGEST_RATE", 0)
			}

			// Catch embedding misconfiguration before touching the store:
			// a chat model configured as the embedding model silently
			// produces useless vectors.
			if err := embedder.Validate(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			qs, _, err := buildStore(log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer qs.Close()

			if reset {
				if err := qs.Reset(ctx); err != nil {
					return fmt.Errorf("ingest: reset collection: %w", err)
				}
				log.Info("collection reset")
			} else if err := qs.EnsureCollection(ctx); err != nil {
				return fmt.Errorf("ingest: ensure collection: %w", err)
			}

			var docs []rag.Document
			settle := ingestion.DefaultSettleCorpus

			if faqPath != "" {
				entries, err := faq.Load(faqPath)
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
				docs = faq.Documents(entries, chunk.SourceName(faqPath))
				settle = ingestion.DefaultSettleFAQ
				log.Info("faq loaded", slog.String("path", faqPath), slog.Int("entries", len(entries)))
			} else {
				docs, err = collectCorpus(args[0], maxChars, log)
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
			}

			if len(docs) == 0 {
				log.Warn("nothing to ingest")
				return nil
			}

			pipeline, err := ingestion.NewPipeline(qs, &ingestion.Config{
				Workers: workers,
				Rate:    insertRate,
			})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			log.Info("starting ingestion",
				slog.Int("chunks", len(docs)),
				slog.Int("workers", pipeline.Workers()),
			)

			report, err := pipeline.Run(ctx, docs)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			if report.Succeeded == 0 {
				return fmt.Errorf("ingest: all %d chunks failed to insert", len(docs))
			}

			// Let the vector index absorb the batch before the command
			// returns, so a chat started right after sees the new data.
			if cmd.Flags().Changed("settle") {
				settle = time.Duration(settleSeconds) * time.Second
			} else if s := getEnvInt("ASKDOCS_SETTLE_SECONDS", -1); s >= 0 {
				settle = time.Duration(s) * time.Second
			}
			ingestion.Settle(ctx, settle)

			log.Info("ingestion complete",
				slog.Int("succeeded", report.Succeeded),
				slog.Int("failed", len(report.Failed)),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&faqPath, "faq", "", "YAML FAQ file to ingest instead of a corpus")
	cmd.Flags().BoolVar(&reset, "reset", false, "Drop and recreate the collection before ingesting")
	cmd.Flags().IntVar(&maxChars, "max-chars", chunk.DefaultMaxChars, "Maximum characters per chunk")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Insert worker pool size (default: min(32, NumCPU))")
	cmd.Flags().IntVar(&insertRate, "rate", 0, "Maximum inserts per second, 0 for unlimited")
	cmd.Flags().IntVar(&settleSeconds, "settle", 0, "Seconds to wait for the index to settle after inserting")

	return cmd
}

// collectCorpus reads and chunks every corpus file under root.
func collectCorpus(root string, maxChars int, log *slog.Logger) ([]rag.Document, error) {
	paths, err := chunk.CollectSources(root)
	if err != nil {
		return nil, err
	}

	var docs []rag.Document
	for _, path := range paths {
		text, err := chunk.ReadSource(path)
		if err != nil {
			return nil, err
		}

		meta := ingestion.InferMetadata(path, text).Map()
		source := chunk.SourceName(path)

		chunks := chunk.Split(text, source, maxChars)
		for _, c := range chunks {
			docs = append(docs, rag.Document{
				ChunkID:  c.ID,
				Content:  c.Text,
				Source:   c.Source,
				Metadata: meta,
			})
		}
		log.Info("source chunked", slog.String("path", path), slog.Int("chunks", len(chunks)))
	}
	return docs, nil
}
