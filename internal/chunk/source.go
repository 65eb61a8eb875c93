package chunk

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrSourceNotFound reports that a corpus resource does not exist. Callers
// must surface it; a missing source is never treated as an empty one.
var ErrSourceNotFound = errors.New("chunk: source not found")

// corpusExtensions lists the file extensions collected from a corpus
// directory. Anything else is skipped.
var corpusExtensions = map[string]bool{
	".txt":  true,
	".text": true,
	".md":   true,
	".pdf":  true,
}

// ReadSource returns the full text of a corpus file. PDF files are read
// through their extracted plain text; everything else is read as UTF-8.
func ReadSource(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return "", fmt.Errorf("chunk: stat %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return readPDF(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("chunk: read %s: %w", path, err)
	}
	return string(data), nil
}

// CollectSources resolves a corpus path into the ordered list of files to
// ingest. A file path yields itself; a directory yields its corpus files
// (by extension) in lexical order. A missing path fails with
// ErrSourceNotFound.
func CollectSources(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, root)
		}
		return nil, fmt.Errorf("chunk: stat %s: %w", root, err)
	}

	if !info.IsDir() {
		return []string{root}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if corpusExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("chunk: walk %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// SourceName derives the chunk ID prefix for a corpus file: the base name
// without its extension.
func SourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readPDF extracts the plain text of a PDF file.
func readPDF(path string) (string, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("chunk: open pdf %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	b, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("chunk: extract pdf text %s: %w", path, err)
	}
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("chunk: read pdf text %s: %w", path, err)
	}

	return buf.String(), nil
}
