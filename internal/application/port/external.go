package port

import (
	"context"
	"errors"

	"github.com/garyjia/exemption-tracker/internal/domain/entity"
	"github.com/garyjia/exemption-tracker/internal/domain/workflow"
)

// ErrTooManyPages is returned by a DocumentInspector when a document exceeds the page limit
var ErrTooManyPages = errors.New("document exceeds page limit")

// DocumentInspector reads metadata out of uploaded document content
type DocumentInspector interface {
	// PageCount returns the number of pages of a PDF document. Over the page limit it
	// returns the real count with an error wrapping ErrTooManyPages.
	PageCount(ctx context.Context, content []byte) (int, error)
}

// RequestExporter renders a request into a downloadable file
type RequestExporter interface {
	Export(ctx context.Context, req *entity.ExemptionRequest, progress []workflow.StageProgress) ([]byte, error)
}
