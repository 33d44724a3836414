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

// ContractRepository implements port.ContractRepository
type ContractRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *sql.DB, logger *zap.Logger) port.ContractRepository {
	return &ContractRepository{
		db:     db,
		logger: logger,
	}
}

const contractColumns = `id, project_id, reference, title, supplier, amount, currency, signed_at, created_at, updated_at`

// Create creates a new contract
func (r *ContractRepository) Create(ctx context.Context, contract *entity.Contract) error {
	query := `
		INSERT INTO contracts (
			project_id, reference, title, supplier, amount, currency,
			signed_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		contract.ProjectID,
		contract.Reference,
		contract.Title,
		contract.Supplier,
		contract.Amount,
		contract.Currency,
		contract.SignedAt,
		contract.CreatedAt,
		contract.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create contract", zap.Int64("project_id", contract.ProjectID), zap.Error(err))
		return fmt.Errorf("failed to create contract: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	contract.ID = id
	return nil
}

// GetByID retrieves a contract by ID
func (r *ContractRepository) GetByID(ctx context.Context, id int64) (*entity.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = ?`

	contract, err := scanContract(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get contract by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return contract, nil
}

// ListByProject retrieves the contracts of a project in creation order
func (r *ContractRepository) ListByProject(ctx context.Context, projectID int64) ([]*entity.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE project_id = ? ORDER BY id ASC`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to list contracts", zap.Int64("project_id", projectID), zap.Error(err))
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	defer rows.Close()

	contracts := []*entity.Contract{}
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, contract)
	}
	return contracts, rows.Err()
}

// Update updates a contract
func (r *ContractRepository) Update(ctx context.Context, contract *entity.Contract) error {
	query := `
		UPDATE contracts
		SET reference = ?, title = ?, supplier = ?, amount = ?, currency = ?,
			signed_at = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		contract.Reference,
		contract.Title,
		contract.Supplier,
		contract.Amount,
		contract.Currency,
		contract.SignedAt,
		contract.UpdatedAt,
		contract.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update contract", zap.Int64("id", contract.ID), zap.Error(err))
		return fmt.Errorf("failed to update contract: %w", err)
	}
	return nil
}

// Delete removes a contract and, by cascade, its requests
func (r *ContractRepository) Delete(ctx context.Context, id int64) error {
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, "DELETE FROM contracts WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete contract", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	return nil
}

func scanContract(row scanner) (*entity.Contract, error) {
	var contract entity.Contract
	var signedAt sql.NullTime

	err := row.Scan(
		&contract.ID,
		&contract.ProjectID,
		&contract.Reference,
		&contract.Title,
		&contract.Supplier,
		&contract.Amount,
		&contract.Currency,
		&signedAt,
		&contract.CreatedAt,
		&contract.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if signedAt.Valid {
		contract.SignedAt = &signedAt.Time
	}
	return &contract, nil
}

// Verify interface compliance
var _ port.ContractRepository = (*ContractRepository)(nil)
