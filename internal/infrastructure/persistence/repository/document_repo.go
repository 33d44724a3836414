package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garyjia/exemption-tracker/internal/application/port"
	"github.com/garyjia/exemption-tracker/internal/domain/entity"
	"github.com/garyjia/exemption-tracker/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// DocumentRepository implements port.DocumentRepository
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) port.DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

const documentColumns = `id, request_id, storage_key, file_name, mime_type, file_size, page_count, created_at`

// Create records an uploaded document
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	query := `
		INSERT INTO documents (
			request_id, storage_key, file_name, mime_type, file_size, page_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		doc.RequestID,
		doc.StorageKey,
		doc.FileName,
		doc.MimeType,
		doc.FileSize,
		doc.PageCount,
		doc.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create document",
			zap.Int64("request_id", doc.RequestID),
			zap.String("file_name", doc.FileName),
			zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	doc.ID = id
	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`

	doc, err := scanDocument(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get document by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// GetByRequestID retrieves the documents of a request in upload order
func (r *DocumentRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE request_id = ? ORDER BY id ASC`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get documents by request ID", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}
	defer rows.Close()

	docs := []*entity.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Rename changes the display name of a document
func (r *DocumentRepository) Rename(ctx context.Context, id int64, fileName string) error {
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, "UPDATE documents SET file_name = ? WHERE id = ?", fileName, id)
	if err != nil {
		r.logger.Error("Failed to rename document", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to rename document: %w", err)
	}
	return nil
}

// Delete removes a document record
func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete document", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func scanDocument(row scanner) (*entity.Document, error) {
	var doc entity.Document
	err := row.Scan(
		&doc.ID,
		&doc.RequestID,
		&doc.StorageKey,
		&doc.FileName,
		&doc.MimeType,
		&doc.FileSize,
		&doc.PageCount,
		&doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Verify interface compliance
var _ port.DocumentRepository = (*DocumentRepository)(nil)
