package transcribe

import (
	"math"
	"strings"
	"unicode"

	"github.com/obiente/translate/whisperbridge/internal/wordlist"
)

// Stitcher joins per-window transcripts in window order.
//
// Windows that do not overlap are concatenated with a single space. When a
// window overlaps its predecessor, the longest run of words that ends the
// text stitched so far and also starts the new transcript is treated as
// speech heard twice and dropped from the new transcript. Words compare
// after wordlist.Normalize; a token that normalises to nothing, such as a
// lone dash or ellipsis, never matches. The run length is bounded by the
// share of the new window that was already heard:
//
//	maxRun = ceil(words(new) * overlap/len(window)) + 1
//
// Without a match the whole transcript is appended.
type Stitcher struct {
	parts []string
	words []string // normalised words of everything stitched so far
	prev  Window
	seen  bool
}

// NewStitcher returns an empty Stitcher.
func NewStitcher() *Stitcher { return &Stitcher{} }

// Add appends the transcript produced for window w and returns the text it
// actually appended. Windows must be added in plan order.
func (s *Stitcher) Add(w Window, text string) string {
	overlap := 0
	if s.seen {
		overlap = max(0, s.prev.End-w.Start)
	}
	s.prev, s.seen = w, true

	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	newWords := normalisedFields(text)

	if overlap > 0 && len(s.words) > 0 && w.Len() > 0 {
		ratio := math.Min(1, float64(overlap)/float64(w.Len()))
		limit := int(math.Ceil(float64(len(newWords))*ratio)) + 1
		limit = min(limit, len(newWords), len(s.words))
		if k := longestRun(s.words, newWords, limit); k > 0 {
			text = dropWords(text, k)
			newWords = newWords[k:]
		}
	}

	if text == "" {
		return ""
	}
	s.parts = append(s.parts, text)
	s.words = append(s.words, newWords...)
	return text
}

// String returns the stitched transcript.
func (s *Stitcher) String() string {
	return strings.Join(s.parts, " ")
}

// longestRun returns the largest k <= limit such that the last k entries of
// tail equal the first k entries of head.
func longestRun(tail, head []string, limit int) int {
	for k := limit; k > 0; k-- {
		if equalWords(tail[len(tail)-k:], head[:k]) {
			return k
		}
	}
	return 0
}

func equalWords(a, b []string) bool {
	for i := range a {
		if a[i] == "" || a[i] != b[i] {
			return false
		}
	}
	return true
}

func normalisedFields(text string) []string {
	fields := strings.Fields(text)
	for i, f := range fields {
		fields[i] = wordlist.Normalize(f)
	}
	return fields
}

// dropWords removes the first k whitespace-separated words of text and the
// whitespace after them, keeping the rest byte for byte.
func dropWords(text string, k int) string {
	rest := text
	for i := 0; i < k; i++ {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			return ""
		}
		rest = rest[end:]
	}
	return strings.TrimLeftFunc(rest, unicode.IsSpace)
}
