package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/askdocs/askdocs-go/internal/logging"
	"github.com/askdocs/askdocs-go/internal/metrics"
	"github.com/askdocs/askdocs-go/internal/server"
	"github.com/askdocs/askdocs-go/internal/tracing"
)

// NewServeCmd constructs the `askdocs serve` command, which exposes the
// question pipeline over HTTP.
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the askdocs HTTP server",
		Long: `Start the askdocs HTTP server on localhost.

POST /v1/ask answers one question per request, GET /healthz and GET /readyz
report liveness and collaborator readiness, and GET /metrics serves
Prometheus instruments. Requests to /v1/* require a Bearer token when
ASKDOCS_SERVER_TOKEN is set.

Examples:
  askdocs serve
  askdocs serve --addr 127.0.0.1:9090
  ASKDOCS_SERVER_TOKEN=secret askdocs serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("backend", os.Getenv("ASKDOCS_BACKEND")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			registry := prometheus.NewRegistry()
			m := metrics.New(registry)

			engine, cleanup, err := buildEngine(log, m)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer cleanup()

			// Readiness probes use their own store handle; the engine owns
			// the first one.
			qs, emb, err := buildStore(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer qs.Close()

			if addr == "" {
				addr = getEnvOrDefault("ASKDOCS_SERVER_ADDR", "127.0.0.1:8080")
			}

			srv, err := server.New(engine, &server.Config{
				Addr:   addr,
				Logger: log,
				Pingers: []server.Pinger{
					server.NewStorePinger(qs),
					server.NewEmbedderPinger(emb),
				},
				RateLimit: float64(getEnvInt("ASKDOCS_SERVER_RATE", 0)),
				RateBurst: getEnvInt("ASKDOCS_SERVER_BURST", 0),
				Token:     os.Getenv("ASKDOCS_SERVER_TOKEN"),
				Registry:  registry,
				Metrics:   m,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: 127.0.0.1:8080 or ASKDOCS_SERVER_ADDR)")

	return cmd
}
