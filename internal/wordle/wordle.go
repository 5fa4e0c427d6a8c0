// Package wordle holds the rules of the game: word canonicalisation, the
// guess evaluator and the dictionary of playable words.
package wordle

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"wordle/internal/models"
)

const (
	WordLength = 5
	MaxTries   = 6
)

// Canonicalize trims, NFC-normalises and upper-cases a word.
// A cases.Caser is stateful, so one is built per call.
func Canonicalize(word string) string {
	return cases.Upper(language.Und).String(norm.NFC.String(strings.TrimSpace(word)))
}

// Length counts letters, not bytes
func Length(word string) int {
	return utf8.RuneCountInString(word)
}

// Evaluate compares guess against secret position by position.
// Exact matches are credited first; remaining letters are then credited as
// misplaced left to right while the secret still has unclaimed copies.
// Both words must already be canonical and of equal length.
func Evaluate(secret, guess string) []models.LetterStatus {
	s := []rune(secret)
	g := []rune(guess)

	remaining := make(map[rune]int, len(s))
	for _, r := range s {
		remaining[r]++
	}

	statuses := make([]models.LetterStatus, len(g))
	for i, r := range g {
		if i < len(s) && r == s[i] {
			statuses[i] = models.LetterCorrect
			remaining[r]--
		}
	}

	for i, r := range g {
		if statuses[i] != "" {
			continue
		}
		if remaining[r] > 0 {
			statuses[i] = models.LetterMisplaced
			remaining[r]--
		} else {
			statuses[i] = models.LetterIncorrect
		}
	}

	return statuses
}

// IsSolved reports whether every position is correct
func IsSolved(statuses []models.LetterStatus) bool {
	if len(statuses) == 0 {
		return false
	}
	for _, s := range statuses {
		if s != models.LetterCorrect {
			return false
		}
	}
	return true
}
