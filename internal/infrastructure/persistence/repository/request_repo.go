package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/exemption-tracker/internal/application/port"
	"github.com/garyjia/exemption-tracker/internal/domain/entity"
	"github.com/garyjia/exemption-tracker/internal/domain/taxation"
	"github.com/garyjia/exemption-tracker/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new exemption request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `id, contract_id, reference, title, tax_category, current_stage, created_at, updated_at`

// Create creates a new exemption request
func (r *RequestRepository) Create(ctx context.Context, req *entity.ExemptionRequest) error {
	query := `
		INSERT INTO exemption_requests (
			contract_id, reference, title, tax_category, current_stage,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		req.ContractID,
		req.Reference,
		req.Title,
		string(req.TaxCategory),
		req.CurrentStage,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.String("reference", req.Reference), zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	req.ID = id
	return nil
}

// GetByID retrieves a request by ID, without its items
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.ExemptionRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM exemption_requests WHERE id = ?`

	req, err := scanRequest(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// GetByReference retrieves a request by its unique reference
func (r *RequestRepository) GetByReference(ctx context.Context, reference string) (*entity.ExemptionRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM exemption_requests WHERE reference = ?`

	req, err := scanRequest(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request by reference", zap.String("reference", reference), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// ListByContract retrieves the requests of a contract in creation order
func (r *RequestRepository) ListByContract(ctx context.Context, contractID int64) ([]*entity.ExemptionRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM exemption_requests WHERE contract_id = ? ORDER BY id ASC`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, contractID)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Int64("contract_id", contractID), zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests := []*entity.ExemptionRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// Update updates the editable fields of a request. The stage is left untouched.
func (r *RequestRepository) Update(ctx context.Context, req *entity.ExemptionRequest) error {
	query := `
		UPDATE exemption_requests
		SET reference = ?, title = ?, tax_category = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		req.Reference,
		req.Title,
		string(req.TaxCategory),
		req.UpdatedAt,
		req.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update request", zap.Int64("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", err)
	}
	return nil
}

// UpdateStage stores a new current stage
func (r *RequestRepository) UpdateStage(ctx context.Context, id int64, stage string) error {
	query := `UPDATE exemption_requests SET current_stage = ?, updated_at = ? WHERE id = ?`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, stage, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update stage", zap.Int64("id", id), zap.String("stage", stage), zap.Error(err))
		return fmt.Errorf("failed to update stage: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("request %d not found", id)
	}
	return nil
}

// Delete removes a request; items, history and documents cascade
func (r *RequestRepository) Delete(ctx context.Context, id int64) error {
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, "DELETE FROM exemption_requests WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete request", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return nil
}

func scanRequest(row scanner) (*entity.ExemptionRequest, error) {
	var req entity.ExemptionRequest
	var category string

	err := row.Scan(
		&req.ID,
		&req.ContractID,
		&req.Reference,
		&req.Title,
		&category,
		&req.CurrentStage,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.TaxCategory = taxation.TaxCategory(category)
	return &req, nil
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
