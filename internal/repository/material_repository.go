package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/mrp-backend/internal/entities"
)

// MaterialRepository provides access to material master data.
type MaterialRepository interface {
	Exists(ctx context.Context, materialID string) (bool, error)
	Create(ctx context.Context, m *entities.Material) error
	Get(ctx context.Context, materialID string) (*entities.Material, error)
	GetForUpdate(ctx context.Context, materialID string) (*entities.Material, error)
	Update(ctx context.Context, m *entities.Material) error
	List(ctx context.Context, filter MaterialFilter) ([]entities.Material, error)
}

// MaterialFilter narrows material listings.
type MaterialFilter struct {
	Type  entities.MaterialType
	Plant string
}

type materialRepository struct {
	db Querier
}

const materialColumns = `material_id, description, type, current_stock, min_stock, max_stock,
	unit_of_measure, unit_price, status, plant, storage_location, last_movement_date`

func (r *materialRepository) Exists(ctx context.Context, materialID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM materials WHERE material_id = $1)", materialID).Scan(&exists)
	return exists, err
}

func (r *materialRepository) Create(ctx context.Context, m *entities.Material) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO materials (`+materialColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, m.MaterialID, m.Description, m.Type, m.CurrentStock, m.MinStock, m.MaxStock,
		m.UnitOfMeasure, m.UnitPrice, m.Status, m.Plant, m.StorageLocation, m.LastMovementDate)
	if err != nil {
		return fmt.Errorf("failed to create material: %w", err)
	}
	return nil
}

func (r *materialRepository) Get(ctx context.Context, materialID string) (*entities.Material, error) {
	return r.get(ctx, materialID, "")
}

// GetForUpdate locks the material row for the rest of the enclosing
// transaction so stock-level updates cannot race.
func (r *materialRepository) GetForUpdate(ctx context.Context, materialID string) (*entities.Material, error) {
	return r.get(ctx, materialID, " FOR UPDATE")
}

func (r *materialRepository) get(ctx context.Context, materialID, suffix string) (*entities.Material, error) {
	var m entities.Material
	err := r.db.QueryRow(ctx, `
		SELECT `+materialColumns+` FROM materials WHERE material_id = $1`+suffix,
		materialID,
	).Scan(&m.MaterialID, &m.Description, &m.Type, &m.CurrentStock, &m.MinStock, &m.MaxStock,
		&m.UnitOfMeasure, &m.UnitPrice, &m.Status, &m.Plant, &m.StorageLocation, &m.LastMovementDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entities.NotFoundError("material %s not found", materialID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get material: %w", err)
	}
	return &m, nil
}

func (r *materialRepository) Update(ctx context.Context, m *entities.Material) error {
	_, err := r.db.Exec(ctx, `
		UPDATE materials
		SET description = $2, type = $3, current_stock = $4, min_stock = $5, max_stock = $6,
			unit_of_measure = $7, unit_price = $8, status = $9, plant = $10,
			storage_location = $11, last_movement_date = $12
		WHERE material_id = $1
	`, m.MaterialID, m.Description, m.Type, m.CurrentStock, m.MinStock, m.MaxStock,
		m.UnitOfMeasure, m.UnitPrice, m.Status, m.Plant, m.StorageLocation, m.LastMovementDate)
	if err != nil {
		return fmt.Errorf("failed to update material: %w", err)
	}
	return nil
}

func (r *materialRepository) List(ctx context.Context, filter MaterialFilter) ([]entities.Material, error) {
	query := "SELECT " + materialColumns + " FROM materials WHERE 1=1"
	args := []any{}
	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Plant != "" {
		args = append(args, filter.Plant)
		query += fmt.Sprintf(" AND plant = $%d", len(args))
	}
	query += " ORDER BY material_id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	defer rows.Close()

	var materials []entities.Material
	for rows.Next() {
		var m entities.Material
		if err := rows.Scan(&m.MaterialID, &m.Description, &m.Type, &m.CurrentStock, &m.MinStock, &m.MaxStock,
			&m.UnitOfMeasure, &m.UnitPrice, &m.Status, &m.Plant, &m.StorageLocation, &m.LastMovementDate); err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}
