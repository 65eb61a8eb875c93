package faq

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/askdocs/askdocs-go/internal/chunk"
)

func writeFAQ(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	path := writeFAQ(t, "faq.yaml", `
- question: "How do I reset my password?"
  answer: "Go to account settings and click 'Reset Password'."
  category: account
- question: "What payment methods are accepted?"
  answer: "We accept Visa, Mastercard, PayPal, and Apple Pay."
  category: billing
`)

	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Question != "How do I reset my password?" {
		t.Errorf("Question: got %q", entries[0].Question)
	}
	if entries[1].Category != "billing" {
		t.Errorf("Category: got %q, want %q", entries[1].Category, "billing")
	}
}

func TestLoad_JSON(t *testing.T) {
	t.Parallel()

	path := writeFAQ(t, "faq.json", `[
  {"question": "How can I contact support?", "answer": "Email support@example.com.", "category": "support"}
]`)

	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Answer != "Email support@example.com." {
		t.Errorf("Answer: got %q", entries[0].Answer)
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, chunk.ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestLoad_EmptyFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"empty question", "- question: \"\"\n  answer: something\n"},
		{"empty answer", "- question: something\n  answer: \"  \"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFAQ(t, "faq.yaml", tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDocuments(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Question: "Q1?", Answer: "A1.", Category: "account"},
		{Question: "Q2?", Answer: "A2.", Category: "billing"},
	}

	docs := Documents(entries, "faq")
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
	if docs[0].ChunkID != "faq_0" || docs[1].ChunkID != "faq_1" {
		t.Errorf("ChunkIDs: got %q, %q", docs[0].ChunkID, docs[1].ChunkID)
	}
	if docs[0].Content != "A1." {
		t.Errorf("Content must be the answer: got %q", docs[0].Content)
	}
	if docs[0].Question != "Q1?" {
		t.Errorf("Question: got %q", docs[0].Question)
	}
	if !docs[0].IsFAQ() {
		t.Error("FAQ document must report IsFAQ")
	}
	if docs[1].Category != "billing" {
		t.Errorf("Category: got %q", docs[1].Category)
	}
}
