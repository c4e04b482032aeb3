package wordlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	words := []string{"dog", "cat", "fish"}

	tests := []struct {
		name  string
		word  string
		words []string
		want  bool
	}{
		{"present", "cat", words, true},
		{"absent", "zzz", words, false},
		{"empty list", "cat", nil, false},
		{"case insensitive", "CAT", words, true},
		{"surrounding space", " fish ", words, true},
		{"no partial match", "ca", words, false},
		{"arabic", "الله", []string{"بسم", "الله"}, true},
		// precomposed é vs e + combining acute
		{"nfc", "caf\u00e9", []string{"cafe\u0301"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.word, tt.words))
			assert.Equal(t, tt.want, NewSet(tt.words).Contains(tt.word))
		})
	}
}

func TestSet(t *testing.T) {
	s := NewSet([]string{"Dog", "dog", "cat"})
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("DOG"))

	var empty *Set
	assert.False(t, empty.Contains("dog"))
	assert.Zero(t, empty.Len())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello", Normalize("Hello,"))
	assert.Equal(t, "world", Normalize(`"World!"`))
	assert.Equal(t, "don't", Normalize("Don't"))
	assert.Equal(t, "", Normalize("..."))
}

func TestCompare(t *testing.T) {
	c := Compare("hello world", "hello world")
	assert.True(t, c.Exact)
	assert.Equal(t, 1.0, c.Similarity)

	c = Compare("Hello, word", "hello world")
	assert.False(t, c.Exact)
	assert.Equal(t, 2, c.Total)
	assert.Equal(t, 1, c.Matched)
	assert.InDelta(t, 0.5, c.Similarity, 1e-9)
	assert.True(t, c.Words[0].Match)
	assert.False(t, c.Words[1].Match)

	c = Compare("one two three", "one two")
	assert.Equal(t, 3, c.Total)
	assert.Equal(t, 2, c.Matched)
	assert.Equal(t, "three", c.Words[2].Transcribed)
	assert.Empty(t, c.Words[2].Expected)

	c = Compare("", "  ")
	assert.True(t, c.Exact)
	assert.Equal(t, 1.0, c.Similarity)
}
