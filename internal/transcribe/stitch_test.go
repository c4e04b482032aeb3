package transcribe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type piece struct {
	w    Window
	text string
}

func stitch(pieces ...piece) string {
	s := NewStitcher()
	for _, p := range pieces {
		s.Add(p.w, p.text)
	}
	return s.String()
}

func TestStitchNoOverlapConcatenates(t *testing.T) {
	got := stitch(
		piece{Window{0, 10}, " the quick "},
		piece{Window{10, 20}, "brown fox"},
		piece{Window{20, 25}, "jumps"},
	)
	assert.Equal(t, "the quick brown fox jumps", got)
}

func TestStitchNoOverlapKeepsRepeatedWords(t *testing.T) {
	// without overlap a repeated word is real speech
	got := stitch(
		piece{Window{0, 10}, "no"},
		piece{Window{10, 20}, "no"},
	)
	assert.Equal(t, "no no", got)
}

func TestStitchOverlapDropsRepeatedRun(t *testing.T) {
	got := stitch(
		piece{Window{0, 16000}, "the quick brown fox"},
		piece{Window{8000, 24000}, "brown fox jumps over"},
		piece{Window{16000, 32000}, "jumps over the lazy dog"},
	)
	assert.Equal(t, "the quick brown fox jumps over the lazy dog", got)
}

func TestStitchOverlapNormalisesWords(t *testing.T) {
	got := stitch(
		piece{Window{0, 100}, "Hello there, General"},
		piece{Window{50, 150}, "there general Kenobi."},
	)
	assert.Equal(t, "Hello there, General Kenobi.", got)
}

func TestStitchOverlapWithoutMatchAppendsEverything(t *testing.T) {
	got := stitch(
		piece{Window{0, 100}, "alpha beta"},
		piece{Window{50, 150}, "gamma delta"},
	)
	assert.Equal(t, "alpha beta gamma delta", got)
}

func TestStitchRunIsBoundedByOverlapRatio(t *testing.T) {
	// 10% overlap on a 4-word transcript allows at most ceil(0.4)+1 = 2 words
	got := stitch(
		piece{Window{0, 100}, "a b c"},
		piece{Window{90, 190}, "a b c d"},
	)
	assert.Equal(t, "a b c a b c d", got)

	got = stitch(
		piece{Window{0, 100}, "x y b c"},
		piece{Window{90, 190}, "b c d e"},
	)
	assert.Equal(t, "x y b c d e", got)
}

func TestStitchFullyCoveredTailWindow(t *testing.T) {
	// the clipped last window lies entirely inside its predecessor
	got := stitch(
		piece{Window{16000, 32000}, "jumps over the lazy dog"},
		piece{Window{24000, 32000}, "the lazy dog"},
	)
	assert.Equal(t, "jumps over the lazy dog", got)
}

func TestStitchSkipsEmptyWindows(t *testing.T) {
	got := stitch(
		piece{Window{0, 10}, ""},
		piece{Window{5, 15}, "  "},
		piece{Window{10, 20}, "hello"},
	)
	assert.Equal(t, "hello", got)
	assert.Equal(t, "", stitch())
}

func TestStitchSingleWindowKeepsText(t *testing.T) {
	text := "line one\nline two"
	assert.Equal(t, text, stitch(piece{Window{0, 10}, "  " + text + "\n"}))
}

func TestDropWords(t *testing.T) {
	assert.Equal(t, "c  d", dropWords("a b\tc  d", 2))
	assert.Equal(t, "", dropWords("a b", 2))
	assert.Equal(t, "", dropWords("a b", 5))
	assert.Equal(t, "a b", dropWords("a b", 0))
}

func TestStitchAddReturnsAppendedText(t *testing.T) {
	s := NewStitcher()
	assert.Equal(t, "the quick brown fox", s.Add(Window{0, 100}, " the quick brown fox "))
	assert.Equal(t, "jumps", s.Add(Window{50, 150}, "brown fox jumps"))
	assert.Equal(t, "", s.Add(Window{100, 150}, "jumps"))
	assert.Equal(t, "the quick brown fox jumps", s.String())
}

func TestStitchPunctuationOnlyTokensNeverMatch(t *testing.T) {
	got := stitch(
		piece{Window{0, 100}, "alpha -"},
		piece{Window{50, 150}, "… beta"},
	)
	assert.Equal(t, "alpha - … beta", got)

	got = stitch(
		piece{Window{0, 100}, "alpha beta"},
		piece{Window{50, 150}, "Beta, gamma"},
	)
	assert.Equal(t, "alpha beta gamma", got, "punctuation around real words still matches")
}
