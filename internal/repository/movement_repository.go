package repository

import (
	"context"
	"fmt"

	"github.com/matheusmosca/mrp-backend/internal/entities"
)

// MovementRepository is the immutable goods movement ledger.
type MovementRepository interface {
	Create(ctx context.Context, m *entities.GoodsMovement) error
	List(ctx context.Context, filter MovementFilter) ([]entities.GoodsMovement, error)
}

// MovementFilter narrows ledger listings.
type MovementFilter struct {
	MaterialID   string
	OrderID      string
	MovementType entities.MovementType
	Plant        string
	Limit        int
}

type movementRepository struct {
	db Querier
}

const movementColumns = `id, movement_type, material_id, quantity, plant, storage_location,
	order_id, reference, timestamp`

func (r *movementRepository) Create(ctx context.Context, m *entities.GoodsMovement) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO goods_movements (`+movementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, m.ID, m.MovementType, m.MaterialID, m.Quantity, m.Plant, m.StorageLocation,
		m.OrderID, m.Reference, m.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to create goods movement: %w", err)
	}
	return nil
}

func (r *movementRepository) List(ctx context.Context, filter MovementFilter) ([]entities.GoodsMovement, error) {
	query := "SELECT " + movementColumns + " FROM goods_movements WHERE 1=1"
	args := []any{}
	if filter.MaterialID != "" {
		args = append(args, filter.MaterialID)
		query += fmt.Sprintf(" AND material_id = $%d", len(args))
	}
	if filter.OrderID != "" {
		args = append(args, filter.OrderID)
		query += fmt.Sprintf(" AND order_id = $%d", len(args))
	}
	if filter.MovementType != "" {
		args = append(args, filter.MovementType)
		query += fmt.Sprintf(" AND movement_type = $%d", len(args))
	}
	if filter.Plant != "" {
		args = append(args, filter.Plant)
		query += fmt.Sprintf(" AND plant = $%d", len(args))
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query goods movements: %w", err)
	}
	defer rows.Close()

	var movements []entities.GoodsMovement
	for rows.Next() {
		var m entities.GoodsMovement
		if err := rows.Scan(&m.ID, &m.MovementType, &m.MaterialID, &m.Quantity, &m.Plant, &m.StorageLocation,
			&m.OrderID, &m.Reference, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan goods movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
