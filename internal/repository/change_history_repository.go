package repository

import (
	"context"
	"fmt"

	"github.com/matheusmosca/mrp-backend/internal/entities"
)

// ChangeHistoryRepository is the append-only audit trail of order
// changes.
type ChangeHistoryRepository interface {
	Create(ctx context.Context, h *entities.OrderChangeHistory) error
	ByOrder(ctx context.Context, orderID string) ([]entities.OrderChangeHistory, error)
	List(ctx context.Context, filter HistoryFilter) ([]entities.OrderChangeHistory, error)
}

// HistoryFilter narrows audit trail listings.
type HistoryFilter struct {
	ChangeType entities.ChangeType
	ChangedBy  string
	Limit      int
}

type changeHistoryRepository struct {
	db Querier
}

const historyColumns = `change_id, order_id, change_type, field_name, old_value, new_value,
	reason, changed_by, change_timestamp`

func (r *changeHistoryRepository) Create(ctx context.Context, h *entities.OrderChangeHistory) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO order_change_history (`+historyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, h.ChangeID, h.OrderID, h.ChangeType, h.FieldName, h.OldValue, h.NewValue,
		h.Reason, h.ChangedBy, h.ChangeTimestamp)
	if err != nil {
		return fmt.Errorf("failed to create change record: %w", err)
	}
	return nil
}

func (r *changeHistoryRepository) ByOrder(ctx context.Context, orderID string) ([]entities.OrderChangeHistory, error) {
	return r.queryHistory(ctx,
		"SELECT "+historyColumns+" FROM order_change_history WHERE order_id = $1 ORDER BY change_timestamp DESC",
		orderID)
}

func (r *changeHistoryRepository) List(ctx context.Context, filter HistoryFilter) ([]entities.OrderChangeHistory, error) {
	query := "SELECT " + historyColumns + " FROM order_change_history WHERE 1=1"
	args := []any{}
	if filter.ChangeType != "" {
		args = append(args, filter.ChangeType)
		query += fmt.Sprintf(" AND change_type = $%d", len(args))
	}
	if filter.ChangedBy != "" {
		args = append(args, filter.ChangedBy)
		query += fmt.Sprintf(" AND changed_by = $%d", len(args))
	}
	query += " ORDER BY change_timestamp DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return r.queryHistory(ctx, query, args...)
}

func (r *changeHistoryRepository) queryHistory(ctx context.Context, query string, args ...any) ([]entities.OrderChangeHistory, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query change history: %w", err)
	}
	defer rows.Close()

	var records []entities.OrderChangeHistory
	for rows.Next() {
		var h entities.OrderChangeHistory
		if err := rows.Scan(&h.ChangeID, &h.OrderID, &h.ChangeType, &h.FieldName, &h.OldValue, &h.NewValue,
			&h.Reason, &h.ChangedBy, &h.ChangeTimestamp); err != nil {
			return nil, fmt.Errorf("failed to scan change record: %w", err)
		}
		records = append(records, h)
	}
	return records, rows.Err()
}
