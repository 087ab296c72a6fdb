package pdfextract

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"docqa/internal/pkg/textutil"
)

var (
	// ErrFileNotFound is returned when the PDF path does not exist.
	ErrFileNotFound = errors.New("pdf file not found")
	// ErrExtraction wraps any parse failure from the underlying PDF reader.
	ErrExtraction = errors.New("pdf extraction failed")
)

// PageBreakMarker separates the text of consecutive pages in the extracted
// output. Downstream chunking keeps it, so answers can reference page
// boundaries.
const PageBreakMarker = "\n\n--- Page Break ---\n\n"

// Extractor adapts Extract for callers that take an interface.
type Extractor struct{}

func (Extractor) Extract(path string) (string, error) { return Extract(path) }

// Extract reads the PDF at path and returns its sanitized plain text, page
// by page, with PageBreakMarker between pages (not after the last one).
func Extract(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", fmt.Errorf("%w: stat %s: %v", ErrExtraction, path, err)
	}

	text, err := extract(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return textutil.Sanitize(text), nil
}

// extract isolates the third-party reader, which panics on some malformed
// inputs.
func extract(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reader panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	total := reader.NumPage()
	for num := 1; num <= total; num++ {
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", num, err)
		}
		b.WriteString(textutil.Sanitize(pageText))
		if num < total {
			b.WriteString(PageBreakMarker)
		}
	}
	return b.String(), nil
}
