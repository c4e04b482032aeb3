// Package resultbuf copies text into caller-owned, fixed-capacity,
// NUL-terminated byte buffers. len(buf) is the declared capacity and no
// write ever goes past it.
package resultbuf

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	// ErrBufferTooSmall reports text that does not fit and was not truncated.
	ErrBufferTooSmall = errors.New("resultbuf: buffer too small")
	// ErrInvalidText reports text containing a NUL byte, which the
	// terminator convention cannot represent.
	ErrInvalidText = errors.New("resultbuf: text contains NUL byte")
)

// Policy selects what happens when text does not fit.
type Policy int

const (
	// Reject writes nothing and returns ErrBufferTooSmall.
	Reject Policy = iota
	// Truncate writes the longest prefix that fits and ends on a rune boundary.
	Truncate
)

func (p Policy) String() string {
	switch p {
	case Reject:
		return "reject"
	case Truncate:
		return "truncate"
	default:
		return "unknown"
	}
}

// Outcome describes a successful write.
type Outcome struct {
	// Written is the number of text bytes copied, excluding the terminator.
	Written   int
	Truncated bool
}

// Write copies text plus a NUL terminator into buf.
func Write(text string, buf []byte, policy Policy) (Outcome, error) {
	if strings.IndexByte(text, 0) >= 0 {
		return Outcome{}, ErrInvalidText
	}
	if len(buf) == 0 {
		return Outcome{}, ErrBufferTooSmall
	}

	n := len(text)
	truncated := false
	if n+1 > len(buf) {
		if policy != Truncate {
			return Outcome{}, ErrBufferTooSmall
		}
		n = runeBoundary(text, len(buf)-1)
		truncated = true
	}
	copy(buf, text[:n])
	buf[n] = 0
	return Outcome{Written: n, Truncated: truncated}, nil
}

// runeBoundary returns the largest n <= limit such that text[:n] does not
// split a multi-byte UTF-8 sequence.
func runeBoundary(text string, limit int) int {
	if limit >= len(text) {
		return len(text)
	}
	n := limit
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return n
}

// Read returns the text stored in buf, up to the first NUL byte.
func Read(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return string(buf[:i])
	}
	return string(buf)
}
