package chunk

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadSource_Missing(t *testing.T) {
	t.Parallel()

	_, err := ReadSource(filepath.Join(t.TempDir(), "no-such-file.txt"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestReadSource_TextFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.txt")
	if err := os.WriteFile(path, []byte("first line\nsecond line\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadSource(path)
	if err != nil {
		t.Fatalf("ReadSource failed: %v", err)
	}
	if got != "first line\nsecond line\n" {
		t.Errorf("content: got %q", got)
	}
}

func TestCollectSources_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "one.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := CollectSources(path)
	if err != nil {
		t.Fatalf("CollectSources failed: %v", err)
	}
	if !reflect.DeepEqual(got, []string{path}) {
		t.Errorf("got %v, want [%s]", got, path)
	}
}

func TestCollectSources_Directory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := map[string]bool{
		"b.md":       true,
		"a.txt":      true,
		"notes.pdf":  true,
		"skip.json":  false,
		"ignore.csv": false,
	}
	for name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "c.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := CollectSources(dir)
	if err != nil {
		t.Fatalf("CollectSources failed: %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.md"),
		filepath.Join(dir, "notes.pdf"),
		filepath.Join(sub, "c.txt"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v\nwant %v", got, want)
	}
}

func TestCollectSources_Missing(t *testing.T) {
	t.Parallel()

	_, err := CollectSources(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestSourceName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"corpus/report.txt", "report"},
		{"notes.pdf", "notes"},
		{"/abs/path/faq.yaml", "faq"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := SourceName(tt.path); got != tt.want {
			t.Errorf("SourceName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
