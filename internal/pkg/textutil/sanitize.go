package textutil

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Sanitize coerces v to a string that is safe to store, embed, and serialize
// as JSON: invalid UTF-8 byte sequences (unpaired surrogates included) are
// dropped and all line-ending variants are normalized to "\n". It never
// panics; a nil or unconvertible value yields "".
func Sanitize(v any) string {
	s := coerce(v)
	if s == "" {
		return ""
	}
	s = normalizeLineEndings(s)
	if utf8.ValidString(s) && !strings.ContainsRune(s, utf8.RuneError) {
		return s
	}
	return dropInvalidRunes(s)
}

func coerce(v any) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// dropInvalidRunes removes bytes that do not decode as UTF-8. A literal
// U+FFFD already present in the input survives; only decode failures are
// dropped, matching encode-then-ignore semantics.
func dropInvalidRunes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		b.WriteRune(r)
		i += size
	}
	return b.String()
}
