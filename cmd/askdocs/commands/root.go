// Package commands defines all Cobra CLI commands for the askdocs binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/askdocs/askdocs-go/internal/audit"
	"github.com/askdocs/askdocs-go/internal/config"
	"github.com/askdocs/askdocs-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "askdocs",
		Short: "askdocs — question answering grounded in your own documents",
		Long: `askdocs answers natural language questions using only your own corpus.

Point it at a directory of text, markdown, or PDF files (or a YAML FAQ file),
ingest them into a Qdrant vector store, and ask away. Every answer is grounded
in the single most relevant passage retrieved from the corpus; when no model
backend can produce an answer, the raw passage is shown instead.

Generation backend is selected via the ASKDOCS_BACKEND environment variable
or a YAML config file (~/.askdocs/config.yaml).
See 'askdocs --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Pick up a local .env if present; absence is not an error.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.askdocs/config.yaml)")

	root.AddCommand(
		NewAskCmd(),
		NewChatCmd(),
		NewDiagnoseCmd(),
		NewServeCmd(),
		NewIngestCmd(),
		NewVersionCmd(),
	)

	return root
}
