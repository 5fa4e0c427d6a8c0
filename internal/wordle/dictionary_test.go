package wordle

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDictionary(t *testing.T) {
	d, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.Len() < 100 {
		t.Errorf("Len() = %d, want a few hundred words", d.Len())
	}
	for _, w := range []string{"INDEX", "BOBBY", "ABBEY", "crane"} {
		if !d.Contains(w) {
			t.Errorf("Contains(%q) = false", w)
		}
	}
	if d.Contains("ZZZZZ") {
		t.Error("Contains(ZZZZZ) = true")
	}

	for i := 0; i < 50; i++ {
		w := d.Random()
		if Length(w) != WordLength || !d.Contains(w) {
			t.Fatalf("Random() = %q, not a playable word", w)
		}
	}
}

func TestNewFiltersAndDeduplicates(t *testing.T) {
	d, err := New([]string{"crane", "CRANE", " Crane", "toolong", "abc", "slate"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.Len() != 2 {
		t.Errorf("Len() = %d, want 2", d.Len())
	}
}

func TestNewEmpty(t *testing.T) {
	if _, err := New([]string{"abc", "toolong"}); !errors.Is(err, ErrEmptyDictionary) {
		t.Errorf("New() error = %v, want ErrEmptyDictionary", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "words.json")
		if err := os.WriteFile(path, []byte(`["pizza", "pasta"]`), 0o644); err != nil {
			t.Fatal(err)
		}
		d, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
		if !d.Contains("PIZZA") || d.Len() != 2 {
			t.Errorf("unexpected dictionary contents, len %d", d.Len())
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(path, []byte(`{"not": "an array"}`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFile(path); err == nil {
			t.Error("LoadFile() expected error for malformed JSON")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
			t.Error("LoadFile() expected error for missing file")
		}
	})
}
