package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/askdocs/askdocs-go/internal/generate"
	"github.com/askdocs/askdocs-go/internal/metrics"
	"github.com/askdocs/askdocs-go/internal/rag"
	"github.com/askdocs/askdocs-go/internal/session"
)

// fakeTurner is a test double for the turner interface.
type fakeTurner struct {
	// result is returned by Turn when err is nil.
	result *session.TurnResult
	// err makes Turn fail.
	err error
	// lastQuestion records the question Turn was called with.
	lastQuestion string
}

func (f *fakeTurner) Turn(ctx context.Context, question string) (*session.TurnResult, error) {
	f.lastQuestion = question
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// discardLogger returns a logger that swallows output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer builds a Server around a fake turner with a fresh isolated
// registry so tests do not pollute prometheus.DefaultRegisterer.
func newTestServer(turner turner) *Server {
	return &Server{
		turner:  turner,
		cfg:     &Config{},
		log:     discardLogger(),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
}

// doAsk posts the body to handleAsk and returns the recorder.
func doAsk(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleAsk(rec, req)
	return rec
}

func decodeAsk(t *testing.T, rec *httptest.ResponseRecorder) askResponse {
	t.Helper()
	var resp askResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func Test_HandleAsk_GeneratedAnswer(t *testing.T) {
	t.Parallel()

	score := float32(0.91)
	turner := &fakeTurner{result: &session.TurnResult{
		Passage: &rag.Result{
			Passage: rag.Document{ChunkID: "corpus_2", Content: "passage body", Source: "corpus"},
			Score:   &score,
		},
		Answer: &generate.Answer{Text: "the generated answer", SourcePassageID: "corpus_2", Model: "gpt-4o-mini"},
	}}
	s := newTestServer(turner)

	rec := doAsk(t, s, `{"question":"where?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	resp := decodeAsk(t, rec)
	if !resp.Found {
		t.Error("found: got false, want true")
	}
	if resp.Answer != "the generated answer" || resp.Model != "gpt-4o-mini" {
		t.Errorf("answer: got %q/%q", resp.Answer, resp.Model)
	}
	if resp.PassageID != "corpus_2" || resp.Passage != "passage body" {
		t.Errorf("passage: got %q/%q", resp.PassageID, resp.Passage)
	}
	if resp.Score == nil || *resp.Score != 0.91 {
		t.Errorf("score: got %v, want 0.91", resp.Score)
	}
	if turner.lastQuestion != "where?" {
		t.Errorf("question passed to turn: got %q", turner.lastQuestion)
	}
}

func Test_HandleAsk_NothingFound(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeTurner{result: &session.TurnResult{}})

	rec := doAsk(t, s, `{"question":"anything"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	resp := decodeAsk(t, rec)
	if resp.Found {
		t.Error("found: got true, want false")
	}
	if resp.Answer != "" || resp.PassageID != "" {
		t.Errorf("empty result must carry no answer/passage: %+v", resp)
	}
}

// Test_HandleAsk_FallbackCarriesPassageOnly covers the exhausted-cascade
// case: passage returned, answer absent, score explicitly absent.
func Test_HandleAsk_FallbackCarriesPassageOnly(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeTurner{result: &session.TurnResult{
		Passage: &rag.Result{Passage: rag.Document{ChunkID: "faq_1", Content: "the raw answer", Question: "q?"}},
	}})

	rec := doAsk(t, s, `{"question":"q"}`)
	resp := decodeAsk(t, rec)
	if !resp.Found || resp.Answer != "" {
		t.Errorf("fallback: got %+v", resp)
	}
	if resp.Passage != "the raw answer" {
		t.Errorf("passage: got %q", resp.Passage)
	}
	if resp.Score != nil {
		t.Errorf("score must be omitted when the store reported none, got %v", *resp.Score)
	}
}

func Test_HandleAsk_BadRequests(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeTurner{result: &session.TurnResult{}})

	cases := map[string]string{
		"malformed json": `{"question":`,
		"missing field":  `{}`,
		"blank question": `{"question":"   "}`,
	}
	for name, body := range cases {
		if rec := doAsk(t, s, body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status got %d, want 400", name, rec.Code)
		}
	}
}

func Test_HandleAsk_TurnErrorIsBadGateway(t *testing.T) {
	t.Parallel()

	s := newTestServer(&fakeTurner{err: errors.New("qdrant unreachable")})

	rec := doAsk(t, s, `{"question":"q"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status: got %d, want 502", rec.Code)
	}
}

func Test_HandlerLabel(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/v1/ask":  "ask",
		"/healthz": "healthz",
		"/readyz":  "readyz",
		"/metrics": "metrics",
		"/else":    "other",
	}
	for path, want := range cases {
		if got := handlerLabel(path); got != want {
			t.Errorf("handlerLabel(%q): got %q, want %q", path, got, want)
		}
	}
}

// Test_New_Validation verifies constructor checks and defaults.
func Test_New_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, nil); err == nil {
		t.Error("expected error for nil engine")
	}
}
