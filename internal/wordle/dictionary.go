package wordle

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
)

//go:embed words.json
var defaultWords []byte

var ErrEmptyDictionary = errors.New("dictionary has no playable words")

// Dictionary is an immutable set of playable words, safe for concurrent reads.
type Dictionary struct {
	words []string
	index map[string]struct{}
}

// Load returns the embedded word list when path is empty, otherwise the file at path
func Load(path string) (*Dictionary, error) {
	if path == "" {
		return Parse(defaultWords)
	}
	return LoadFile(path)
}

// LoadFile reads a JSON array of words from disk
func LoadFile(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	return Parse(data)
}

// Parse builds a dictionary from a JSON array of words.
// Words are canonicalised; entries that are not WordLength letters and duplicates are dropped.
func Parse(data []byte) (*Dictionary, error) {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse word list: %w", err)
	}
	return New(raw)
}

// New builds a dictionary from words
func New(words []string) (*Dictionary, error) {
	d := &Dictionary{index: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = Canonicalize(w)
		if Length(w) != WordLength {
			continue
		}
		if _, dup := d.index[w]; dup {
			continue
		}
		d.index[w] = struct{}{}
		d.words = append(d.words, w)
	}
	if len(d.words) == 0 {
		return nil, ErrEmptyDictionary
	}
	return d, nil
}

// Contains reports whether word, after canonicalisation, is playable
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.index[Canonicalize(word)]
	return ok
}

// Random picks a word uniformly
func (d *Dictionary) Random() string {
	return d.words[rand.IntN(len(d.words))]
}

func (d *Dictionary) Len() int {
	return len(d.words)
}
