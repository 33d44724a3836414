package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/exemption-tracker/internal/application/port"
	"github.com/garyjia/exemption-tracker/internal/domain/taxation"
	"github.com/garyjia/exemption-tracker/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// LineItemRepository implements port.LineItemRepository
type LineItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLineItemRepository creates a new line item repository
func NewLineItemRepository(db *sql.DB, logger *zap.Logger) port.LineItemRepository {
	return &LineItemRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceForRequest swaps the whole item table of a request.
// Callers wrap it in a transaction together with the request row.
func (r *LineItemRepository) ReplaceForRequest(ctx context.Context, requestID int64, items []taxation.LineItem) error {
	exec := sqlite.ExecutorFor(ctx, r.db)

	if _, err := exec.ExecContext(ctx, "DELETE FROM line_items WHERE request_id = ?", requestID); err != nil {
		r.logger.Error("Failed to clear line items", zap.Int64("request_id", requestID), zap.Error(err))
		return fmt.Errorf("failed to clear line items: %w", err)
	}

	query := `
		INSERT INTO line_items (
			request_id, position, label, quantity, unit_price, tax_rate,
			custom_duty, it_ic, issue_date, nature_of_operation, tariff_position,
			total, tax_amount, vat_included
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for i, item := range items {
		_, err := exec.ExecContext(ctx, query,
			requestID,
			i,
			item.Label,
			item.Quantity,
			item.UnitPrice,
			item.TaxRate,
			string(item.CustomDuty),
			string(item.ItIc),
			item.IssueDate,
			item.NatureOfOperation,
			item.TariffPosition,
			item.Total,
			item.TaxAmount,
			item.VatIncluded,
		)
		if err != nil {
			r.logger.Error("Failed to insert line item",
				zap.Int64("request_id", requestID),
				zap.Int("position", i),
				zap.Error(err))
			return fmt.Errorf("failed to insert line item %d: %w", i, err)
		}
	}

	return nil
}

// GetByRequestID retrieves the items of a request in table order
func (r *LineItemRepository) GetByRequestID(ctx context.Context, requestID int64) ([]taxation.LineItem, error) {
	query := `
		SELECT label, quantity, unit_price, tax_rate, custom_duty, it_ic,
			issue_date, nature_of_operation, tariff_position,
			total, tax_amount, vat_included
		FROM line_items
		WHERE request_id = ?
		ORDER BY position ASC
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get line items", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	items := []taxation.LineItem{}
	for rows.Next() {
		var item taxation.LineItem
		var duty, itIc string

		err := rows.Scan(
			&item.Label,
			&item.Quantity,
			&item.UnitPrice,
			&item.TaxRate,
			&duty,
			&itIc,
			&item.IssueDate,
			&item.NatureOfOperation,
			&item.TariffPosition,
			&item.Total,
			&item.TaxAmount,
			&item.VatIncluded,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}

		item.CustomDuty = taxation.CustomDuty(duty)
		item.ItIc = taxation.ItIc(itIc)
		items = append(items, item)
	}

	return items, rows.Err()
}

// Verify interface compliance
var _ port.LineItemRepository = (*LineItemRepository)(nil)
