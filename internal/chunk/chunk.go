// Package chunk implements deterministic corpus splitting.
// A corpus text is walked line by line and accumulated into passages of at
// most MaxChars characters; blank lines are preserved as paragraph-break
// markers so the stored passages keep the original paragraph structure.
// Splitting is deterministic: the same input always yields the same chunks.
package chunk

import (
	"fmt"
	"strings"
)

// DefaultMaxChars is the chunk size ceiling used when none is configured.
// It approximates a generation-model context budget in characters; it is an
// approximation, not a token-exact bound.
const DefaultMaxChars = 4000

// Chunk is one bounded-size passage of corpus text.
// Chunks are immutable once produced; after ingestion the vector store owns
// the persisted form.
type Chunk struct {
	// ID uniquely identifies the chunk within its source, formatted as
	// "<source>_<ordinal>".
	ID string

	// Text is the chunk content, leading/trailing whitespace trimmed,
	// interior paragraph breaks preserved.
	Text string

	// Source names the corpus resource the chunk came from.
	Source string

	// Ordinal is the 0-based emission order within the source. It records
	// assignment order only; no chunk depends on another.
	Ordinal int
}

// Split walks text line by line and seals a chunk whenever appending the
// next line would push the running buffer past maxChars. Blank lines are
// normalized to a single newline so paragraph breaks survive. A single line
// longer than maxChars is emitted as its own oversized chunk rather than
// split mid-line. Empty or whitespace-only input yields no chunks.
func Split(text, source string, maxChars int) []Chunk {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	var chunks []Chunk
	var curr strings.Builder

	seal := func() {
		sealed := strings.TrimSpace(curr.String())
		curr.Reset()
		if sealed == "" {
			return
		}
		chunks = append(chunks, Chunk{
			ID:      fmt.Sprintf("%s_%d", source, len(chunks)),
			Text:    sealed,
			Source:  source,
			Ordinal: len(chunks),
		})
	}

	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			// Paragraph break: keep a single newline so structure survives.
			line = "\n"
		} else {
			line += "\n"
		}
		if curr.Len() > 0 && curr.Len()+len(line) > maxChars {
			seal()
		}
		curr.WriteString(line)
	}
	seal()

	return chunks
}

// splitLines splits text on newlines the way a file is read line by line:
// a trailing newline does not produce a phantom empty line, and carriage
// returns are stripped.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if n := len(lines); lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
