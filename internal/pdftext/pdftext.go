// Package pdftext pulls page counts and plain text out of PDF documents.
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

const (
	// MaxPages limits how many pages are extracted for display
	MaxPages = 500

	// MaxPageTextSize caps the text kept per page (64KB)
	MaxPageTextSize = 64 * 1024
)

// Document is the extracted text of a PDF, one entry per page.
type Document struct {
	Pages []string
	// Truncated is set when the PDF had more than MaxPages pages.
	Truncated bool
}

// PageCount returns the number of pages in the PDF stored at path.
func PageCount(path string) (n int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	r, err := newReader(f, info.Size())
	if err != nil {
		return 0, err
	}
	return numPage(r)
}

// Extract returns the cleaned plain text of every page in data. Pages that
// fail to extract are kept as empty strings so page numbers stay aligned.
func Extract(data []byte) (*Document, error) {
	r, err := newReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	total, err := numPage(r)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	doc := &Document{}
	if total > MaxPages {
		total = MaxPages
		doc.Truncated = true
	}
	doc.Pages = make([]string, total)
	for i := 1; i <= total; i++ {
		doc.Pages[i-1] = pageText(r, i)
	}
	return doc, nil
}

// The pdf package panics on some malformed inputs.
func newReader(ra io.ReaderAt, size int64) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("invalid PDF: %v", p)
		}
	}()
	r, err = pdf.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("invalid PDF: %w", err)
	}
	return r, nil
}

func numPage(r *pdf.Reader) (n int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("invalid PDF page tree: %v", p)
		}
	}()
	return r.NumPage(), nil
}

func pageText(r *pdf.Reader, num int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	page := r.Page(num)
	if page.V.IsNull() {
		return ""
	}
	raw, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	text = Clean(raw)
	if len(text) > MaxPageTextSize {
		text = text[:MaxPageTextSize] + "\n... [truncated]"
	}
	return text
}

// Clean strips null bytes and collapses runs of whitespace, keeping newlines.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")

	var b strings.Builder
	lastWasSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			b.WriteRune('\n')
			lastWasSpace = false
		case unicode.IsSpace(r):
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		default:
			b.WriteRune(r)
			lastWasSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}
