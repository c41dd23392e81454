package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/mrp-backend/internal/entities"
)

// StockRepository provides access to per-plant stock balances.
type StockRepository interface {
	Get(ctx context.Context, materialID, plant string) (*entities.Stock, error)
	// GetForUpdate locks the balance row for the enclosing transaction.
	GetForUpdate(ctx context.Context, materialID, plant string) (*entities.Stock, error)
	Create(ctx context.Context, s *entities.Stock) error
	UpdateOnHand(ctx context.Context, id string, onHand float64) error
}

type stockRepository struct {
	db Querier
}

const stockColumns = `id, material_id, plant, storage_location, on_hand, safety_stock`

func (r *stockRepository) Get(ctx context.Context, materialID, plant string) (*entities.Stock, error) {
	return r.get(ctx, materialID, plant, "")
}

func (r *stockRepository) GetForUpdate(ctx context.Context, materialID, plant string) (*entities.Stock, error) {
	return r.get(ctx, materialID, plant, " FOR UPDATE")
}

func (r *stockRepository) get(ctx context.Context, materialID, plant, suffix string) (*entities.Stock, error) {
	var s entities.Stock
	err := r.db.QueryRow(ctx, `
		SELECT `+stockColumns+` FROM stock WHERE material_id = $1 AND plant = $2`+suffix,
		materialID, plant,
	).Scan(&s.ID, &s.MaterialID, &s.Plant, &s.StorageLocation, &s.OnHand, &s.SafetyStock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entities.NotFoundError("no stock for material %s in plant %s", materialID, plant)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return &s, nil
}

func (r *stockRepository) Create(ctx context.Context, s *entities.Stock) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO stock (`+stockColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.MaterialID, s.Plant, s.StorageLocation, s.OnHand, s.SafetyStock)
	if err != nil {
		return fmt.Errorf("failed to create stock: %w", err)
	}
	return nil
}

func (r *stockRepository) UpdateOnHand(ctx context.Context, id string, onHand float64) error {
	_, err := r.db.Exec(ctx, "UPDATE stock SET on_hand = $2 WHERE id = $1", id, onHand)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	return nil
}
