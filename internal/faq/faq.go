// Package faq loads structured question/answer corpora. An FAQ file is a
// YAML or JSON list of entries; each entry becomes one stored record, with
// the answer as the grounding text and the question indexed alongside it.
package faq

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/askdocs/askdocs-go/internal/chunk"
	"github.com/askdocs/askdocs-go/internal/rag"
)

// Entry is one frequently-asked question with its canonical answer.
type Entry struct {
	// Question is the canonical phrasing of the question.
	Question string `yaml:"question" json:"question"`

	// Answer is the canonical answer text.
	Answer string `yaml:"answer" json:"answer"`

	// Category is a free-form grouping label (account, billing, ...).
	Category string `yaml:"category" json:"category"`
}

// Load reads an FAQ file (YAML or JSON list of entries) and validates it.
// A missing file fails with chunk.ErrSourceNotFound, matching the free-text
// corpus behavior.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", chunk.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("faq: read %s: %w", path, err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("faq: parse %s: %w", path, err)
	}

	for i, e := range entries {
		if strings.TrimSpace(e.Question) == "" {
			return nil, fmt.Errorf("faq: entry %d in %s has an empty question", i, path)
		}
		if strings.TrimSpace(e.Answer) == "" {
			return nil, fmt.Errorf("faq: entry %d in %s has an empty answer", i, path)
		}
	}

	return entries, nil
}

// Documents converts FAQ entries into storable records. ChunkIDs follow the
// "<source>_<index>" convention used for free-text chunks.
func Documents(entries []Entry, source string) []rag.Document {
	docs := make([]rag.Document, 0, len(entries))
	for i, e := range entries {
		docs = append(docs, rag.Document{
			ChunkID:  fmt.Sprintf("%s_%d", source, i),
			Content:  e.Answer,
			Question: e.Question,
			Category: e.Category,
			Source:   source,
		})
	}
	return docs
}
