package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/askdocs/askdocs-go/internal/logging"
	"github.com/askdocs/askdocs-go/internal/session"
)

// NewChatCmd constructs the `askdocs chat` command, which runs an interactive
// question loop against the ingested corpus.
func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive question session",
		Long: `Start an interactive session against the ingested corpus.

Each question retrieves the single most relevant passage from the vector
store and runs it through the model cascade. When no model produces an
answer, the raw passage is shown instead; when nothing relevant is found,
the session says so and moves on. Type 'exit' or 'quit' (or press Ctrl-D)
to leave.

Completed turns are appended to the local history database
(~/.askdocs/history.db) unless ASKDOCS_HISTORY_DB=disabled.

Examples:
  askdocs chat
  ASKDOCS_BACKEND=ollama askdocs chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			engine, cleanup, err := buildEngine(log, nil)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}
			defer cleanup()

			history, closeHistory := openHistory(log)
			defer closeHistory()

			sess, err := session.New(engine, &session.Config{
				In:      os.Stdin,
				Out:     os.Stdout,
				History: history,
			})
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}

			return sess.Run(ctx)
		},
	}
}
