// Package session drives question turns: retrieve the best passage, generate
// a grounded answer, display the best available result. The interactive loop
// is a two-state machine — awaiting input until an exit token, end of input,
// or interrupt. A single bad turn is caught, logged, and displayed as a
// turn-level notice; it never terminates the session.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/askdocs/askdocs-go/internal/generate"
	"github.com/askdocs/askdocs-go/internal/logging"
	"github.com/askdocs/askdocs-go/internal/metrics"
	"github.com/askdocs/askdocs-go/internal/rag"
	"github.com/askdocs/askdocs-go/internal/store"
)

// NotFoundMessage is displayed when retrieval produces no passage.
const NotFoundMessage = "Sorry, I couldn't find relevant information for that."

// noAnswerNotice is appended to a raw-passage display when every candidate
// model failed.
const noAnswerNotice = "(no generated answer available)"

// previewLen bounds raw-passage displays.
const previewLen = 300

// exitTokens end the interactive loop, matched case-insensitively.
var exitTokens = map[string]bool{
	"exit": true,
	"quit": true,
}

// Retriever fetches the best stored passage for a query. A nil result with
// a nil error means nothing relevant exists.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (*rag.Result, error)
}

// Generator produces a grounded answer, or nil when every candidate model
// failed.
type Generator interface {
	Generate(ctx context.Context, question string, passage rag.Document) (*generate.Answer, error)
}

// TurnResult is the outcome of one question turn.
type TurnResult struct {
	// Passage is the retrieved result; nil when nothing relevant was found.
	Passage *rag.Result
	// Answer is the generated answer; nil when the cascade was exhausted or
	// no passage was found.
	Answer *generate.Answer
}

// Found reports whether retrieval produced a passage.
func (t *TurnResult) Found() bool {
	return t.Passage != nil
}

// Engine runs one retrieve-then-generate turn. It is shared by the
// interactive loop, the one-shot ask command, and the HTTP server.
type Engine struct {
	retriever Retriever
	generator Generator
	metrics   *metrics.Metrics
}

// NewEngine constructs an Engine over the given collaborators.
func NewEngine(retriever Retriever, generator Generator, m *metrics.Metrics) (*Engine, error) {
	if retriever == nil {
		return nil, fmt.Errorf("session: retriever must not be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("session: generator must not be nil")
	}
	return &Engine{retriever: retriever, generator: generator, metrics: m}, nil
}

// Turn runs one full turn. The two suspend points are the retrieval call and
// (when a passage was found) the generation call; nothing else blocks.
// A transport-level retrieval failure is returned as an error so the caller
// can show a turn-level notice; an exhausted generation cascade is not an
// error — the result simply carries no Answer.
func (e *Engine) Turn(ctx context.Context, question string) (*TurnResult, error) {
	log := logging.FromContext(ctx)

	start := time.Now()
	res, err := e.retriever.Retrieve(ctx, question)
	e.metrics.ObserveRetrieval(time.Since(start))
	if err != nil {
		e.metrics.TurnCompleted(metrics.OutcomeError)
		return nil, fmt.Errorf("session: turn failed: %w", err)
	}
	if res == nil {
		e.metrics.TurnCompleted(metrics.OutcomeNotFound)
		return &TurnResult{}, nil
	}

	answer, err := e.generator.Generate(ctx, question, res.Passage)
	if err != nil {
		// Treated the same as an exhausted cascade: fall back to the passage.
		log.Warn("session: generation failed, falling back to raw passage",
			slog.String("passage_id", res.Passage.ChunkID),
			slog.Any("error", err),
		)
		answer = nil
	}

	if answer == nil {
		e.metrics.TurnCompleted(metrics.OutcomeFallback)
		e.metrics.FallbackDisplayed()
	} else {
		e.metrics.TurnCompleted(metrics.OutcomeAnswered)
	}

	return &TurnResult{Passage: res, Answer: answer}, nil
}

// Config holds the tunables for an interactive Session.
type Config struct {
	// In is the question source. Defaults unused; required.
	In io.Reader
	// Out receives all displayed output. Required.
	Out io.Writer
	// History records completed turns. Nil disables history.
	History store.HistoryStore
}

// Session is the interactive question loop.
type Session struct {
	engine  *Engine
	in      io.Reader
	out     io.Writer
	history store.HistoryStore
}

// New constructs a Session over the given engine and IO.
func New(engine *Engine, cfg *Config) (*Session, error) {
	if engine == nil {
		return nil, fmt.Errorf("session: engine must not be nil")
	}
	if cfg == nil || cfg.In == nil || cfg.Out == nil {
		return nil, fmt.Errorf("session: input and output must not be nil")
	}
	return &Session{
		engine:  engine,
		in:      cfg.In,
		out:     cfg.Out,
		history: cfg.History,
	}, nil
}

// Run reads questions until an exit token, end of input, or context
// cancellation. Cancellation is observed between turns only; an in-flight
// turn completes or fails naturally.
func (s *Session) Run(ctx context.Context) error {
	log := logging.FromContext(ctx)

	fmt.Fprintln(s.out, "Ask a question ('exit' or 'quit' to leave).")

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if ctx.Err() != nil {
			fmt.Fprintln(s.out, "\nBye.")
			return nil
		}

		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("session: read input: %w", err)
			}
			// End of input.
			fmt.Fprintln(s.out, "\nBye.")
			return nil
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if exitTokens[strings.ToLower(question)] {
			fmt.Fprintln(s.out, "Bye.")
			return nil
		}

		if err := s.Ask(ctx, question); err != nil {
			// Turn-level failure: notify, log, and keep the loop alive.
			log.Warn("session: turn failed", slog.Any("error", err))
			fmt.Fprintln(s.out, "Something went wrong with that question; please try again.")
		}
	}
}

// Ask runs and displays a single turn, recording it in history when one is
// configured. The one-shot ask command calls this directly.
func (s *Session) Ask(ctx context.Context, question string) error {
	result, err := s.engine.Turn(ctx, question)
	if err != nil {
		return err
	}

	shown := Display(s.out, result)
	s.record(ctx, question, result, shown)
	return nil
}

// Display writes a turn result following the fixed precedence: generated
// answer > raw passage with a no-answer notice > nothing-found message.
// It returns the primary text that was shown.
func Display(w io.Writer, result *TurnResult) string {
	if !result.Found() {
		fmt.Fprintln(w, NotFoundMessage)
		return NotFoundMessage
	}

	if result.Answer != nil {
		fmt.Fprintln(w, result.Answer.Text)
		return result.Answer.Text
	}

	preview := Preview(result.Passage.Passage.Content)
	fmt.Fprintln(w, preview)
	fmt.Fprintln(w, noAnswerNotice)
	return preview
}

// record appends the completed turn to history. History failures are logged
// and swallowed; persistence must never break a turn.
func (s *Session) record(ctx context.Context, question string, result *TurnResult, shown string) {
	if s.history == nil || !result.Found() {
		return
	}

	turn := store.Turn{
		Question:  question,
		Answer:    shown,
		PassageID: result.Passage.Passage.ChunkID,
		Generated: result.Answer != nil,
	}
	if err := s.history.AppendTurn(ctx, turn); err != nil {
		logging.FromContext(ctx).Warn("session: history append failed", slog.Any("error", err))
	}
}

// Preview bounds a passage display to previewLen characters.
func Preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewLen {
		return s
	}
	return strings.TrimSpace(string(runes[:previewLen])) + "..."
}
