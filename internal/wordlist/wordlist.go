// Package wordlist checks transcribed words against reference vocabularies.
// All comparisons are case-insensitive and NFC-normalised.
package wordlist

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

func fold(word string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(word)))
}

// Normalize folds case and strips leading and trailing punctuation, so
// "Hello," and "hello" compare equal.
func Normalize(word string) string {
	s := norm.NFC.String(strings.TrimSpace(word))
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return cases.Fold().String(s)
}

// Validate reports whether word is in words. An empty list contains nothing.
func Validate(word string, words []string) bool {
	w := fold(word)
	for _, candidate := range words {
		if fold(candidate) == w {
			return true
		}
	}
	return false
}

// Set is a prebuilt vocabulary for repeated lookups against the same list.
type Set struct {
	words map[string]struct{}
}

// NewSet builds a Set from words.
func NewSet(words []string) *Set {
	s := &Set{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		s.words[fold(w)] = struct{}{}
	}
	return s
}

// Contains reports whether word is in the set.
func (s *Set) Contains(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[fold(word)]
	return ok
}

// Len returns the number of distinct words.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}

// WordMatch pairs a transcribed word with the expected word at the same position.
type WordMatch struct {
	Transcribed string
	Expected    string
	Match       bool
}

// Comparison is the word-level result of comparing a transcript with a reference.
type Comparison struct {
	// Exact is true when both texts are identical after trimming.
	Exact      bool
	Matched    int
	Total      int
	Similarity float64
	Words      []WordMatch
}

// Compare aligns transcribed and expected word by word.
func Compare(transcribed, expected string) Comparison {
	got := strings.Fields(transcribed)
	want := strings.Fields(expected)

	total := max(len(got), len(want))
	c := Comparison{
		Exact: strings.TrimSpace(transcribed) == strings.TrimSpace(expected),
		Total: total,
		Words: make([]WordMatch, 0, total),
	}
	for i := 0; i < total; i++ {
		var wm WordMatch
		if i < len(got) {
			wm.Transcribed = got[i]
		}
		if i < len(want) {
			wm.Expected = want[i]
		}
		wm.Match = i < len(got) && i < len(want) && Normalize(wm.Transcribed) == Normalize(wm.Expected)
		if wm.Match {
			c.Matched++
		}
		c.Words = append(c.Words, wm)
	}
	if total == 0 {
		c.Similarity = 1
	} else {
		c.Similarity = float64(c.Matched) / float64(total)
	}
	return c
}
