package ingestion

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/askdocs/askdocs-go/internal/rag"
)

// recordingStore is a rag.VectorStore fake that records every Insert call.
// An optional failOn predicate makes chosen chunk ids fail.
type recordingStore struct {
	mu      sync.Mutex
	inserts []insertCall
	failOn  func(doc rag.Document) error
}

type insertCall struct {
	doc rag.Document
	id  string
}

func (s *recordingStore) Insert(ctx context.Context, doc rag.Document, id string) error {
	if s.failOn != nil {
		if err := s.failOn(doc); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts = append(s.inserts, insertCall{doc: doc, id: id})
	return nil
}

func (s *recordingStore) EnsureCollection(ctx context.Context) error { return nil }
func (s *recordingStore) Reset(ctx context.Context) error            { return nil }
func (s *recordingStore) Nearest(ctx context.Context, queryText string, topK int) ([]rag.Result, error) {
	return nil, nil
}
func (s *recordingStore) Healthz(ctx context.Context) error { return nil }
func (s *recordingStore) Close() error                      { return nil }

// calls returns a snapshot of recorded inserts.
func (s *recordingStore) calls() []insertCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]insertCall, len(s.inserts))
	copy(out, s.inserts)
	return out
}

// makeDocs builds n distinct passage documents.
func makeDocs(n int) []rag.Document {
	docs := make([]rag.Document, n)
	for i := range docs {
		docs[i] = rag.Document{
			ChunkID: fmt.Sprintf("corpus_%d", i),
			Content: fmt.Sprintf("passage number %d", i),
			Source:  "corpus",
		}
	}
	return docs
}

// TestNewPipeline_RequiresStore verifies constructor validation.
func TestNewPipeline_RequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := NewPipeline(nil, nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

// TestNewPipeline_WorkerDefault verifies the min(32, NumCPU) default and that
// explicit worker counts are honoured.
func TestNewPipeline_WorkerDefault(t *testing.T) {
	t.Parallel()

	p, err := NewPipeline(&recordingStore{}, nil)
	if err != nil {
		t.Fatalf("NewPipeline() failed: %v", err)
	}

	want := runtime.NumCPU()
	if want > MaxWorkers {
		want = MaxWorkers
	}
	if got := p.Workers(); got != want {
		t.Errorf("default workers: got %d, want %d", got, want)
	}

	p, err = NewPipeline(&recordingStore{}, &Config{Workers: 3})
	if err != nil {
		t.Fatalf("NewPipeline() failed: %v", err)
	}
	if got := p.Workers(); got != 3 {
		t.Errorf("explicit workers: got %d, want 3", got)
	}
}

// TestPipeline_Run_AllSucceed verifies that every chunk is inserted exactly
// once across a range of pool sizes and that the report counts match.
func TestPipeline_Run_AllSucceed(t *testing.T) {
	t.Parallel()

	const total = 40

	for _, workers := range []int{1, 2, 8, 32} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			t.Parallel()

			store := &recordingStore{}
			p, err := NewPipeline(store, &Config{Workers: workers})
			if err != nil {
				t.Fatalf("NewPipeline() failed: %v", err)
			}

			report, err := p.Run(context.Background(), makeDocs(total))
			if err != nil {
				t.Fatalf("Run() failed: %v", err)
			}

			if report.Succeeded != total {
				t.Errorf("Succeeded: got %d, want %d", report.Succeeded, total)
			}
			if len(report.Failed) != 0 {
				t.Errorf("Failed: got %d entries, want 0", len(report.Failed))
			}

			calls := store.calls()
			if len(calls) != total {
				t.Fatalf("inserts: got %d, want %d", len(calls), total)
			}

			// Every chunk landed exactly once, each under a distinct point id.
			seenChunk := make(map[string]bool, total)
			seenID := make(map[string]bool, total)
			for _, c := range calls {
				if seenChunk[c.doc.ChunkID] {
					t.Errorf("chunk %s inserted more than once", c.doc.ChunkID)
				}
				seenChunk[c.doc.ChunkID] = true
				if c.id == "" {
					t.Error("insert with empty point id")
				}
				if seenID[c.id] {
					t.Errorf("point id %s reused", c.id)
				}
				seenID[c.id] = true
			}
		})
	}
}

// TestPipeline_Run_PartialFailure verifies that failing chunks land in the
// report with their ids and errors while the rest still succeed.
func TestPipeline_Run_PartialFailure(t *testing.T) {
	t.Parallel()

	const total = 20
	wantErr := errors.New("store unavailable")

	store := &recordingStore{
		failOn: func(doc rag.Document) error {
			// Fail every odd-ordinal chunk.
			idx, err := strconv.Atoi(strings.TrimPrefix(doc.ChunkID, "corpus_"))
			if err != nil {
				return err
			}
			if idx%2 == 1 {
				return wantErr
			}
			return nil
		},
	}

	p, err := NewPipeline(store, &Config{Workers: 4})
	if err != nil {
		t.Fatalf("NewPipeline() failed: %v", err)
	}

	report, err := p.Run(context.Background(), makeDocs(total))
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if report.Succeeded != total/2 {
		t.Errorf("Succeeded: got %d, want %d", report.Succeeded, total/2)
	}
	if len(report.Failed) != total/2 {
		t.Fatalf("Failed: got %d entries, want %d", len(report.Failed), total/2)
	}

	for _, f := range report.Failed {
		if !errors.Is(f.Err, wantErr) {
			t.Errorf("failure %s: expected wrapped store error, got %v", f.ChunkID, f.Err)
		}
		idx, convErr := strconv.Atoi(strings.TrimPrefix(f.ChunkID, "corpus_"))
		if convErr != nil || idx%2 != 1 {
			t.Errorf("unexpected failed chunk id %q", f.ChunkID)
		}
	}

	if got := len(store.calls()); got != total/2 {
		t.Errorf("successful inserts: got %d, want %d", got, total/2)
	}
}

// TestPipeline_Run_Empty verifies the empty-batch fast path.
func TestPipeline_Run_Empty(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	p, err := NewPipeline(store, nil)
	if err != nil {
		t.Fatalf("NewPipeline() failed: %v", err)
	}

	report, err := p.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if report.Succeeded != 0 || len(report.Failed) != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
	if len(store.calls()) != 0 {
		t.Error("expected no inserts for empty batch")
	}
}

// TestPipeline_Run_RateLimited verifies that a configured rate still delivers
// every chunk (throughput shaping must not drop work).
func TestPipeline_Run_RateLimited(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	p, err := NewPipeline(store, &Config{Workers: 4, Rate: 1000})
	if err != nil {
		t.Fatalf("NewPipeline() failed: %v", err)
	}

	report, err := p.Run(context.Background(), makeDocs(10))
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if report.Succeeded != 10 {
		t.Errorf("Succeeded: got %d, want 10", report.Succeeded)
	}
}

// TestSettle_ContextCancel verifies that Settle returns promptly when the
// context is cancelled instead of sleeping out the full delay.
func TestSettle_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	Settle(ctx, DefaultSettleCorpus)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Settle ignored cancellation, took %v", elapsed)
	}
}

// TestSettle_ZeroDuration verifies the no-op path.
func TestSettle_ZeroDuration(t *testing.T) {
	t.Parallel()

	Settle(context.Background(), 0)
	Settle(context.Background(), -1)
}
