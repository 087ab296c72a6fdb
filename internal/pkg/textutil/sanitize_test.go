package textutil

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", Sanitize("hello"))
	assert.Equal(t, "", Sanitize(""))
}

func TestSanitizeNormalizesLineEndings(t *testing.T) {
	assert.Equal(t, "a\nb\nc\n", Sanitize("a\r\nb\rc\r\n"))
}

func TestSanitizeDropsInvalidUTF8(t *testing.T) {
	inputs := []string{
		"ok\xed\xa0\x80end",     // unpaired high surrogate encoded as WTF-8
		"ok\xed\xb0\x80end",     // unpaired low surrogate
		"\xff\xfe",              // not UTF-8 at all
		"mix\x80ed\xc3\x28 up",  // stray continuation + truncated sequence
		"caf\xc3\xa9 caf\xc3",   // valid then truncated
	}
	for _, in := range inputs {
		out := Sanitize(in)
		assert.True(t, utf8.ValidString(out), "input %q produced invalid output %q", in, out)
	}
	assert.Equal(t, "okend", Sanitize("ok\xed\xa0\x80end"))
}

func TestSanitizeKeepsValidUnicode(t *testing.T) {
	in := "日本語 and émojis 🙂"
	assert.Equal(t, in, Sanitize(in))
}

func TestSanitizeCoercesNonStrings(t *testing.T) {
	assert.Equal(t, "", Sanitize(nil))
	assert.Equal(t, "42", Sanitize(42))
	assert.Equal(t, "3.5", Sanitize(3.5))
	assert.Equal(t, "raw bytes", Sanitize([]byte("raw bytes")))
}

func TestSanitizeNeverPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = Sanitize(make(chan int))
		_ = Sanitize(func() {})
		_ = Sanitize(map[string]any{"k": "v"})
	})
}
