package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/exemption-tracker/internal/application/port"
	"github.com/garyjia/exemption-tracker/internal/domain/entity"
	"github.com/garyjia/exemption-tracker/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// StageHistoryRepository implements port.StageHistoryRepository
type StageHistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStageHistoryRepository creates a new stage history repository
func NewStageHistoryRepository(db *sql.DB, logger *zap.Logger) port.StageHistoryRepository {
	return &StageHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new history record
func (r *StageHistoryRepository) Create(ctx context.Context, history *entity.StageHistory) error {
	query := `
		INSERT INTO stage_history (
			request_id, previous_stage, new_stage, action, actor, comment, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		history.RequestID,
		history.PreviousStage,
		history.NewStage,
		history.Action,
		history.Actor,
		history.Comment,
		history.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Int64("request_id", history.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	return nil
}

// GetByRequestID retrieves all history records of a request, oldest first
func (r *StageHistoryRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.StageHistory, error) {
	query := `
		SELECT id, request_id, previous_stage, new_stage, action, actor, comment, timestamp
		FROM stage_history
		WHERE request_id = ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get history by request ID", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	records := []*entity.StageHistory{}
	for rows.Next() {
		var record entity.StageHistory
		err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.PreviousStage,
			&record.NewStage,
			&record.Action,
			&record.Actor,
			&record.Comment,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.StageHistoryRepository = (*StageHistoryRepository)(nil)
