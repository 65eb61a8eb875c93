package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

// openTestStore opens an in-memory SQLiteStore for use in tests.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func Test_Store_AppendAndRecent(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	turns := []Turn{
		{Question: "where is the warehouse?", Answer: "Rotterdam.", PassageID: "corpus_1", Generated: true},
		{Question: "who runs it?", Answer: "The passage does not say.", PassageID: "corpus_2", Generated: true},
	}
	for _, turn := range turns {
		if err := s.AppendTurn(ctx, turn); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 turns, got %d", len(got))
	}
	if got[0].Question != turns[0].Question || got[0].Answer != turns[0].Answer {
		t.Errorf("turn[0]: got %q/%q", got[0].Question, got[0].Answer)
	}
	if got[0].PassageID != "corpus_1" || !got[0].Generated {
		t.Errorf("turn[0] metadata: got passage=%q generated=%v", got[0].PassageID, got[0].Generated)
	}
	if got[1].Question != turns[1].Question {
		t.Errorf("turn[1]: got %q", got[1].Question)
	}
}

func Test_Store_RecentLimitRespected(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for i := range 6 {
		turn := Turn{
			Question:  fmt.Sprintf("question %d", i),
			Answer:    "answer",
			PassageID: fmt.Sprintf("corpus_%d", i),
		}
		if err := s.AppendTurn(ctx, turn); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 turns, got %d", len(got))
	}
	// The tail of the history, re-ordered oldest-first.
	for i, turn := range got {
		want := fmt.Sprintf("question %d", i+3)
		if turn.Question != want {
			t.Errorf("turn[%d]: got %q, want %q", i, turn.Question, want)
		}
	}
}

func Test_Store_RecentEmpty(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	got, err := s.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("want no turns, got %d", len(got))
	}
}

func Test_Store_FallbackTurnNotGenerated(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	turn := Turn{
		Question:  "anything",
		Answer:    "raw passage text",
		PassageID: "corpus_9",
		Generated: false,
	}
	if err := s.AppendTurn(ctx, turn); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].Generated {
		t.Errorf("fallback turn must round-trip Generated=false, got %+v", got)
	}
}

func Test_Store_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.AppendTurn(ctx, Turn{Question: "q", Answer: "a"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.Recent(ctx, 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].Question != "q" {
		t.Errorf("want persisted turn, got %+v", got)
	}
}
