package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/askdocs/askdocs-go/internal/logging"
	"github.com/askdocs/askdocs-go/internal/session"
	"github.com/askdocs/askdocs-go/internal/store"
)

// NewAskCmd constructs the `askdocs ask` command, which answers a single
// question and exits. With --history it prints recent turns instead.
func NewAskCmd() *cobra.Command {
	var historyN int

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question against the ingested corpus",
		Long: `Answer one question and exit. The question is retrieved and generated
exactly as in an interactive session, and the turn is recorded in the
local history database.

With --history N, the last N recorded turns are printed instead of asking
a new question.

Examples:
  askdocs ask "how do I rotate the API key?"
  askdocs ask --history 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			if historyN > 0 {
				return printHistory(cmd, historyN)
			}
			if len(args) == 0 {
				return fmt.Errorf("ask: a question is required")
			}

			engine, cleanup, err := buildEngine(log, nil)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
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
				return fmt.Errorf("ask: %w", err)
			}

			return sess.Ask(ctx, args[0])
		},
	}

	cmd.Flags().IntVar(&historyN, "history", 0, "Print the last N recorded turns and exit")

	return cmd
}

// printHistory prints the most recent recorded turns, oldest first.
func printHistory(cmd *cobra.Command, n int) error {
	path := os.Getenv("ASKDOCS_HISTORY_DB")
	if path == "" || path == "disabled" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("ask: resolve history path: %w", err)
		}
	}

	hs, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("ask: open history: %w", err)
	}
	defer hs.Close()

	turns, err := hs.Recent(cmd.Context(), n)
	if err != nil {
		return fmt.Errorf("ask: read history: %w", err)
	}
	if len(turns) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history recorded yet.")
		return nil
	}

	out := cmd.OutOrStdout()
	for _, turn := range turns {
		fmt.Fprintf(out, "[%s] Q: %s\n", turn.CreatedAt.Format("2006-01-02 15:04"), turn.Question)
		fmt.Fprintf(out, "A: %s\n\n", turn.Answer)
	}
	return nil
}
