package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/reader"
)

// PDFText pulls page-level plain text from PDF documents, independent
// of any table structure on the pages.
type PDFText struct{}

// Text opens the document and extracts a plain-text rendering of each
// page in document order. Pages with no extractable text, and pages
// that individually fail extraction, are skipped, so the number of
// blocks can be smaller than the page count. Only a document that
// cannot be opened at all is an error.
func (PDFText) Text(path string) (int, []string, error) {
	r, err := reader.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer r.Close()

	pageCount, err := r.PageCount()
	if err != nil {
		return 0, nil, fmt.Errorf("counting pages: %w", err)
	}

	var blocks []string
	for i := 1; i <= pageCount; i++ {
		pageText, _, err := tabula.FromReader(r).Pages(i).Text()
		if err != nil {
			slog.Warn("Skipping unreadable page", "path", path, "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		blocks = append(blocks, pageText)
	}
	return pageCount, blocks, nil
}
