package ingestion

import (
	"path/filepath"
	"strings"
)

// InferredMetadata holds the title and format inferred from a corpus file.
// CLI flags take precedence over inferred values — this is the "best-effort"
// fallback when the user doesn't specify explicit metadata.
type InferredMetadata struct {
	// Title is a human-readable label for the document.
	Title string
	// Format classifies the source file kind (markdown, text, pdf).
	Format string
}

// formatByExtension maps corpus file extensions to canonical format labels.
var formatByExtension = map[string]string{
	".md":   "markdown",
	".txt":  "text",
	".text": "text",
	".pdf":  "pdf",
}

// maxTitleLen bounds inferred titles so a wall-of-text first line doesn't
// bloat every chunk payload.
const maxTitleLen = 80

// InferMetadata inspects a corpus file path and its text content and returns
// best-effort metadata.
//
// Title resolution order:
//
//  1. first markdown heading ("# ...", any level)
//  2. first non-empty line, truncated
//  3. the file name without its extension
func InferMetadata(path, text string) InferredMetadata {
	m := InferredMetadata{
		Title:  titleFromText(text),
		Format: "text",
	}

	ext := strings.ToLower(filepath.Ext(path))
	if format, ok := formatByExtension[ext]; ok {
		m.Format = format
	}

	if m.Title == "" {
		base := filepath.Base(path)
		m.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return m
}

// Map renders the metadata as payload fields for a stored document.
func (m InferredMetadata) Map() map[string]string {
	return map[string]string{
		"title":  m.Title,
		"format": m.Format,
	}
}

// titleFromText scans for a markdown heading, falling back to the first
// non-empty line. Returns "" when the text is all whitespace.
func titleFromText(text string) string {
	firstLine := ""
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if heading := strings.TrimLeft(trimmed, "#"); heading != trimmed {
			if h := strings.TrimSpace(heading); h != "" {
				return truncateTitle(h)
			}
			continue
		}
		if firstLine == "" {
			firstLine = trimmed
		}
	}
	return truncateTitle(firstLine)
}

// truncateTitle bounds a title to maxTitleLen characters.
func truncateTitle(s string) string {
	if len(s) <= maxTitleLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxTitleLen {
		return s
	}
	return strings.TrimSpace(string(runes[:maxTitleLen])) + "..."
}
