package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/askdocs/askdocs-go/internal/embedder"
	"github.com/askdocs/askdocs-go/internal/generate"
	"github.com/askdocs/askdocs-go/internal/logging"
	"github.com/askdocs/askdocs-go/internal/provider"
)

// diagnoseTimeout bounds each collaborator probe.
const diagnoseTimeout = 10 * time.Second

// NewDiagnoseCmd constructs the `askdocs diagnose` command, which checks
// connectivity to every collaborator and prints a readiness summary.
func NewDiagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Check connectivity to Qdrant and the embedding backend",
		Long: `Probe every collaborator the question pipeline depends on and print a
per-collaborator status line.

Qdrant is probed through its health check RPC and the embedding backend by
requesting a single vector. The generation backend is validated from
configuration but deliberately not called: a generate call costs tokens,
and a failing model is already masked by the cascade at question time.

Exits non-zero when any probe fails.

Examples:
  askdocs diagnose
  ASKDOCS_QDRANT_HOST=qdrant.internal askdocs diagnose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			out := cmd.OutOrStdout()

			ctx, cancel := context.WithTimeout(logging.WithLogger(cmd.Context(), log), diagnoseTimeout)
			defer cancel()

			failed := false

			qs, emb, err := buildStore(log)
			if err != nil {
				fmt.Fprintf(out, "qdrant      FAIL  %v\n", err)
				fmt.Fprintf(out, "embedder    SKIP  store unavailable\n")
				failed = true
			} else {
				defer qs.Close()

				if err := qs.Healthz(ctx); err != nil {
					fmt.Fprintf(out, "qdrant      FAIL  %v\n", err)
					failed = true
				} else {
					fmt.Fprintf(out, "qdrant      OK\n")
				}

				if vectors, err := emb.Embed(ctx, []string{"ping"}); err != nil {
					fmt.Fprintf(out, "embedder    FAIL  %v\n", err)
					failed = true
				} else if len(vectors) == 0 || len(vectors[0]) == 0 {
					fmt.Fprintf(out, "embedder    FAIL  empty vector returned\n")
					failed = true
				} else {
					fmt.Fprintf(out, "embedder    OK    %s (%d dimensions)\n",
						embedder.ResolveBackend(), len(vectors[0]))
				}
			}

			providerCfg := provider.ConfigFromEnv()
			if err := providerCfg.Validate(); err != nil {
				fmt.Fprintf(out, "generation  FAIL  %v\n", err)
				failed = true
			} else {
				fmt.Fprintf(out, "generation  OK    %s cascade %v (not called)\n",
					providerCfg.Backend, generate.ModelsFromEnv())
			}

			if failed {
				return fmt.Errorf("diagnose: one or more checks failed")
			}
			return nil
		},
	}
}
