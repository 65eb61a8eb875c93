package rag

import (
	"context"
	"errors"
	"testing"
)

// fakeStore implements VectorStore with a pluggable Nearest behavior.
type fakeStore struct {
	nearest func(ctx context.Context, query string, topK int) ([]Result, error)
}

func (f *fakeStore) EnsureCollection(ctx context.Context) error { return nil }
func (f *fakeStore) Reset(ctx context.Context) error            { return nil }
func (f *fakeStore) Insert(ctx context.Context, doc Document, id string) error {
	return nil
}
func (f *fakeStore) Nearest(ctx context.Context, query string, topK int) ([]Result, error) {
	return f.nearest(ctx, query, topK)
}
func (f *fakeStore) Healthz(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                      { return nil }

func TestNewRetriever_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewRetriever(nil, 1); err == nil {
		t.Error("expected error for nil store")
	}

	r, err := NewRetriever(&fakeStore{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.topK != 1 {
		t.Errorf("topK default: got %d, want 1", r.topK)
	}
}

func TestRetrieve_EmptyStore(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		nearest: func(ctx context.Context, query string, topK int) ([]Result, error) {
			return nil, nil
		},
	}
	r, err := NewRetriever(store, 1)
	if err != nil {
		t.Fatal(err)
	}

	for _, q := range []string{"anything", "", "what is the answer?"} {
		got, err := r.Retrieve(context.Background(), q)
		if err != nil {
			t.Errorf("query %q: unexpected error: %v", q, err)
		}
		if got != nil {
			t.Errorf("query %q: expected absent result, got %+v", q, got)
		}
	}
}

func TestRetrieve_StoreError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	store := &fakeStore{
		nearest: func(ctx context.Context, query string, topK int) ([]Result, error) {
			return nil, boom
		},
	}
	r, err := NewRetriever(store, 1)
	if err != nil {
		t.Fatal(err)
	}

	got, err := r.Retrieve(context.Background(), "q")
	if got != nil {
		t.Errorf("expected no result on store failure, got %+v", got)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestRetrieve_TopHitWithScore(t *testing.T) {
	t.Parallel()

	score := float32(0.87)
	store := &fakeStore{
		nearest: func(ctx context.Context, query string, topK int) ([]Result, error) {
			if topK != 1 {
				t.Errorf("topK: got %d, want 1", topK)
			}
			return []Result{
				{Passage: Document{ChunkID: "doc_4", Content: "the relevant passage"}, Score: &score},
				{Passage: Document{ChunkID: "doc_9", Content: "a worse match"}, Score: &score},
			}, nil
		},
	}
	r, err := NewRetriever(store, 1)
	if err != nil {
		t.Fatal(err)
	}

	got, err := r.Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a result")
	}
	if got.Passage.ChunkID != "doc_4" {
		t.Errorf("ChunkID: got %q, want %q", got.Passage.ChunkID, "doc_4")
	}
	if got.Score == nil || *got.Score != 0.87 {
		t.Errorf("Score: got %v, want 0.87", got.Score)
	}
}

func TestRetrieve_ScoreStaysAbsent(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		nearest: func(ctx context.Context, query string, topK int) ([]Result, error) {
			return []Result{
				{Passage: Document{ChunkID: "doc_0", Content: "unscored passage"}},
			}, nil
		},
	}
	r, err := NewRetriever(store, 1)
	if err != nil {
		t.Fatal(err)
	}

	got, err := r.Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a result")
	}
	// Unknown confidence must not be defaulted to a number.
	if got.Score != nil {
		t.Errorf("Score: got %v, want nil", *got.Score)
	}
}

func TestRetrieve_SkipsEmptyPassages(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		nearest: func(ctx context.Context, query string, topK int) ([]Result, error) {
			return []Result{
				{Passage: Document{ChunkID: "doc_1", Content: ""}},
				{Passage: Document{ChunkID: "doc_2", Content: "usable passage"}},
			}, nil
		},
	}
	r, err := NewRetriever(store, 2)
	if err != nil {
		t.Fatal(err)
	}

	got, err := r.Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a result")
	}
	if got.Passage.ChunkID != "doc_2" {
		t.Errorf("ChunkID: got %q, want %q", got.Passage.ChunkID, "doc_2")
	}
	if got.Passage.Content == "" {
		t.Error("returned passage must have non-empty content")
	}
}
