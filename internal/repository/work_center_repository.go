package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/mrp-backend/internal/entities"
)

// WorkCenterRepository provides access to work center master data.
type WorkCenterRepository interface {
	Exists(ctx context.Context, workCenterID string) (bool, error)
	Create(ctx context.Context, wc *entities.WorkCenter) error
	Get(ctx context.Context, workCenterID string) (*entities.WorkCenter, error)
	List(ctx context.Context, plant string) ([]entities.WorkCenter, error)
}

type workCenterRepository struct {
	db Querier
}

const workCenterColumns = `work_center_id, name, description, capacity, efficiency, status, cost_center, plant`

func (r *workCenterRepository) Exists(ctx context.Context, workCenterID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM work_centers WHERE work_center_id = $1)", workCenterID).Scan(&exists)
	return exists, err
}

func (r *workCenterRepository) Create(ctx context.Context, wc *entities.WorkCenter) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO work_centers (`+workCenterColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, wc.WorkCenterID, wc.Name, wc.Description, wc.Capacity, wc.Efficiency, wc.Status, wc.CostCenter, wc.Plant)
	if err != nil {
		return fmt.Errorf("failed to create work center: %w", err)
	}
	return nil
}

func (r *workCenterRepository) Get(ctx context.Context, workCenterID string) (*entities.WorkCenter, error) {
	var wc entities.WorkCenter
	err := r.db.QueryRow(ctx, `
		SELECT `+workCenterColumns+` FROM work_centers WHERE work_center_id = $1
	`, workCenterID).Scan(&wc.WorkCenterID, &wc.Name, &wc.Description, &wc.Capacity, &wc.Efficiency,
		&wc.Status, &wc.CostCenter, &wc.Plant)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entities.NotFoundError("work center %s not found", workCenterID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work center: %w", err)
	}
	return &wc, nil
}

func (r *workCenterRepository) List(ctx context.Context, plant string) ([]entities.WorkCenter, error) {
	query := "SELECT " + workCenterColumns + " FROM work_centers"
	args := []any{}
	if plant != "" {
		query += " WHERE plant = $1"
		args = append(args, plant)
	}
	query += " ORDER BY work_center_id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list work centers: %w", err)
	}
	defer rows.Close()

	var centers []entities.WorkCenter
	for rows.Next() {
		var wc entities.WorkCenter
		if err := rows.Scan(&wc.WorkCenterID, &wc.Name, &wc.Description, &wc.Capacity, &wc.Efficiency,
			&wc.Status, &wc.CostCenter, &wc.Plant); err != nil {
			return nil, fmt.Errorf("failed to scan work center: %w", err)
		}
		centers = append(centers, wc)
	}
	return centers, rows.Err()
}
