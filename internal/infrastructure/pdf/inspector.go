// Package pdf reads metadata out of uploaded PDF documents with MuPDF
package pdf

import (
	"context"
	"errors"
	"fmt"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/garyjia/exemption-tracker/internal/application/port"
)

// ErrEmptyDocument is returned for zero-length content
var ErrEmptyDocument = errors.New("empty document")

// Inspector implements port.DocumentInspector
type Inspector struct {
	maxPages int
	logger   *zap.Logger
}

// NewInspector creates an Inspector. Documents with more than maxPages pages
// are rejected when maxPages is positive.
func NewInspector(maxPages int, logger *zap.Logger) *Inspector {
	return &Inspector{
		maxPages: maxPages,
		logger:   logger,
	}
}

// PageCount opens the PDF from memory and returns its number of pages
func (i *Inspector) PageCount(ctx context.Context, content []byte) (int, error) {
	if len(content) == 0 {
		return 0, ErrEmptyDocument
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	i.logger.Debug("Inspected PDF", zap.Int("pages", pages), zap.Int("size", len(content)))

	if i.maxPages > 0 && pages > i.maxPages {
		return pages, fmt.Errorf("%w: document has %d pages, limit is %d", port.ErrTooManyPages, pages, i.maxPages)
	}
	return pages, nil
}

// Verify interface compliance
var _ port.DocumentInspector = (*Inspector)(nil)
