package splitter

import (
	"errors"
	"strings"
	"unicode/utf8"

	"docqa/internal/pkg/textutil"
)

// ErrEmptyText is returned when there is nothing left to split after
// sanitization.
var ErrEmptyText = errors.New("no text extracted to split")

const (
	defaultChunkSize = 10000
	defaultOverlap   = 1000
)

// Separators tried in order, coarsest first. Each keeps the separator
// attached to the preceding piece so pieces concatenate back to the input.
var separators = []string{"\n\n", "\n", " "}

// Splitter cuts text into overlapping chunks suitable for embedding.
// It splits recursively on paragraph, line, then word boundaries, falling
// back to a hard rune cut, and prefixes every chunk after the first with
// the trailing runes of the text before it so retrieval does not lose
// context spanning a boundary.
type Splitter struct {
	chunkSize int
	overlap   int
}

func New(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = defaultOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split returns sanitized chunks of at most chunkSize runes where
// consecutive chunks share the configured overlap.
func (s *Splitter) Split(text string) ([]string, error) {
	text = textutil.Sanitize(text)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	// Fresh content per chunk is chunkSize minus the carried overlap, so
	// overlap plus content never exceeds chunkSize.
	budget := s.chunkSize - s.overlap
	segments := mergePieces(splitRecursive(text, separators, budget), budget)

	chunks := make([]string, 0, len(segments))
	var tail []rune
	for i, seg := range segments {
		if i == 0 {
			chunks = append(chunks, seg)
		} else {
			chunks = append(chunks, string(tail)+seg)
		}
		tail = lastRunes(tail, seg, s.overlap)
	}
	return chunks, nil
}

// splitRecursive yields pieces of at most budget runes whose concatenation
// equals text.
func splitRecursive(text string, seps []string, budget int) []string {
	if utf8.RuneCountInString(text) <= budget {
		return []string{text}
	}
	if len(seps) == 0 {
		return hardCut(text, budget)
	}
	parts := strings.SplitAfter(text, seps[0])
	if len(parts) == 1 {
		return splitRecursive(text, seps[1:], budget)
	}
	var out []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if utf8.RuneCountInString(part) <= budget {
			out = append(out, part)
			continue
		}
		out = append(out, splitRecursive(part, seps[1:], budget)...)
	}
	return out
}

func hardCut(text string, budget int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += budget {
		end := start + budget
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// mergePieces greedily joins adjacent pieces while staying within budget.
func mergePieces(pieces []string, budget int) []string {
	var segments []string
	var cur strings.Builder
	curLen := 0
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if curLen > 0 && curLen+n > budget {
			segments = append(segments, cur.String())
			cur.Reset()
			curLen = 0
		}
		cur.WriteString(piece)
		curLen += n
	}
	if curLen > 0 {
		segments = append(segments, cur.String())
	}
	return segments
}

// lastRunes returns the final n runes of prev+s.
func lastRunes(prev []rune, s string, n int) []rune {
	combined := append(append([]rune(nil), prev...), []rune(s)...)
	if len(combined) > n {
		combined = combined[len(combined)-n:]
	}
	return combined
}
