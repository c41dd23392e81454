package repository

import (
	"context"
	"fmt"

	"github.com/matheusmosca/mrp-backend/internal/entities"
)

// BOMRepository provides access to bill-of-material headers and items.
type BOMRepository interface {
	HeaderExists(ctx context.Context, bomID string) (bool, error)
	CreateHeader(ctx context.Context, h *entities.BOMHeader) error
	CreateItem(ctx context.Context, it *entities.BOMItem) error
	HeadersByParent(ctx context.Context, parentMaterialID string) ([]entities.BOMHeader, error)
	ItemsByBOM(ctx context.Context, bomID string) ([]entities.BOMItem, error)
}

type bomRepository struct {
	db Querier
}

func (r *bomRepository) HeaderExists(ctx context.Context, bomID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM bom_headers WHERE bom_id = $1)", bomID).Scan(&exists)
	return exists, err
}

func (r *bomRepository) CreateHeader(ctx context.Context, h *entities.BOMHeader) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bom_headers (bom_id, parent_material_id, version, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5)
	`, h.BOMID, h.ParentMaterialID, h.Version, h.ValidFrom, h.ValidTo)
	if err != nil {
		return fmt.Errorf("failed to create BOM header: %w", err)
	}
	return nil
}

func (r *bomRepository) CreateItem(ctx context.Context, it *entities.BOMItem) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bom_items (bom_item_id, bom_id, component_material_id, quantity, position)
		VALUES ($1, $2, $3, $4, $5)
	`, it.BOMItemID, it.BOMID, it.ComponentMaterialID, it.Quantity, it.Position)
	if err != nil {
		return fmt.Errorf("failed to create BOM item: %w", err)
	}
	return nil
}

func (r *bomRepository) HeadersByParent(ctx context.Context, parentMaterialID string) ([]entities.BOMHeader, error) {
	rows, err := r.db.Query(ctx, `
		SELECT bom_id, parent_material_id, version, valid_from, valid_to
		FROM bom_headers WHERE parent_material_id = $1 ORDER BY version
	`, parentMaterialID)
	if err != nil {
		return nil, fmt.Errorf("failed to query BOM headers: %w", err)
	}
	defer rows.Close()

	var headers []entities.BOMHeader
	for rows.Next() {
		var h entities.BOMHeader
		if err := rows.Scan(&h.BOMID, &h.ParentMaterialID, &h.Version, &h.ValidFrom, &h.ValidTo); err != nil {
			return nil, fmt.Errorf("failed to scan BOM header: %w", err)
		}
		headers = append(headers, h)
	}
	return headers, rows.Err()
}

func (r *bomRepository) ItemsByBOM(ctx context.Context, bomID string) ([]entities.BOMItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT bom_item_id, bom_id, component_material_id, quantity, position
		FROM bom_items WHERE bom_id = $1 ORDER BY position
	`, bomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query BOM items: %w", err)
	}
	defer rows.Close()

	var items []entities.BOMItem
	for rows.Next() {
		var it entities.BOMItem
		if err := rows.Scan(&it.BOMItemID, &it.BOMID, &it.ComponentMaterialID, &it.Quantity, &it.Position); err != nil {
			return nil, fmt.Errorf("failed to scan BOM item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
