package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/mrp-backend/internal/entities"
)

// RoutingRepository provides access to routings and their operations.
type RoutingRepository interface {
	Exists(ctx context.Context, routingID string) (bool, error)
	Create(ctx context.Context, rt *entities.Routing) error
	Get(ctx context.Context, routingID string) (*entities.Routing, error)
	List(ctx context.Context, filter RoutingFilter) ([]entities.Routing, error)
	Delete(ctx context.Context, routingID string) error
	CreateOperation(ctx context.Context, op *entities.Operation) error
	GetOperation(ctx context.Context, routingID, operationID string) (*entities.Operation, error)
	UpdateOperation(ctx context.Context, op *entities.Operation) error
	OperationsByRouting(ctx context.Context, routingID string) ([]entities.Operation, error)
	CountOperations(ctx context.Context, routingID string) (int, error)
}

// RoutingFilter narrows routing listings.
type RoutingFilter struct {
	MaterialID string
	Plant      string
	Status     entities.RoutingStatus
}

type routingRepository struct {
	db Querier
}

const routingColumns = `routing_id, material_id, description, version, status, plant,
	valid_from, valid_to, created_at, updated_at`

const operationColumns = `operation_id, routing_id, work_center_id, description, sequence,
	setup_time, machine_time, labor_time, status, control_key, created_at, updated_at`

func (r *routingRepository) Exists(ctx context.Context, routingID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM routings WHERE routing_id = $1)", routingID).Scan(&exists)
	return exists, err
}

func (r *routingRepository) Create(ctx context.Context, rt *entities.Routing) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO routings (`+routingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, rt.RoutingID, rt.MaterialID, rt.Description, rt.Version, rt.Status, rt.Plant,
		rt.ValidFrom, rt.ValidTo, rt.CreatedAt, rt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create routing: %w", err)
	}
	return nil
}

func (r *routingRepository) Get(ctx context.Context, routingID string) (*entities.Routing, error) {
	var rt entities.Routing
	err := r.db.QueryRow(ctx, `
		SELECT `+routingColumns+` FROM routings WHERE routing_id = $1
	`, routingID).Scan(&rt.RoutingID, &rt.MaterialID, &rt.Description, &rt.Version, &rt.Status, &rt.Plant,
		&rt.ValidFrom, &rt.ValidTo, &rt.CreatedAt, &rt.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entities.NotFoundError("routing %s not found", routingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get routing: %w", err)
	}
	return &rt, nil
}

func (r *routingRepository) List(ctx context.Context, filter RoutingFilter) ([]entities.Routing, error) {
	query := "SELECT " + routingColumns + " FROM routings WHERE 1=1"
	args := []any{}
	if filter.MaterialID != "" {
		args = append(args, filter.MaterialID)
		query += fmt.Sprintf(" AND material_id = $%d", len(args))
	}
	if filter.Plant != "" {
		args = append(args, filter.Plant)
		query += fmt.Sprintf(" AND plant = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY routing_id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list routings: %w", err)
	}
	defer rows.Close()

	var routings []entities.Routing
	for rows.Next() {
		var rt entities.Routing
		if err := rows.Scan(&rt.RoutingID, &rt.MaterialID, &rt.Description, &rt.Version, &rt.Status, &rt.Plant,
			&rt.ValidFrom, &rt.ValidTo, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan routing: %w", err)
		}
		routings = append(routings, rt)
	}
	return routings, rows.Err()
}

// Delete removes the routing together with its operations. The caller
// must have verified no production order references it.
func (r *routingRepository) Delete(ctx context.Context, routingID string) error {
	if _, err := r.db.Exec(ctx, "DELETE FROM operations WHERE routing_id = $1", routingID); err != nil {
		return fmt.Errorf("failed to delete operations: %w", err)
	}
	if _, err := r.db.Exec(ctx, "DELETE FROM routings WHERE routing_id = $1", routingID); err != nil {
		return fmt.Errorf("failed to delete routing: %w", err)
	}
	return nil
}

func (r *routingRepository) CreateOperation(ctx context.Context, op *entities.Operation) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO operations (`+operationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, op.OperationID, op.RoutingID, op.WorkCenterID, op.Description, op.Sequence,
		op.SetupTime, op.MachineTime, op.LaborTime, op.Status, op.ControlKey, op.CreatedAt, op.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create operation: %w", err)
	}
	return nil
}

func (r *routingRepository) GetOperation(ctx context.Context, routingID, operationID string) (*entities.Operation, error) {
	var op entities.Operation
	err := r.db.QueryRow(ctx, `
		SELECT `+operationColumns+` FROM operations WHERE routing_id = $1 AND operation_id = $2
	`, routingID, operationID).Scan(&op.OperationID, &op.RoutingID, &op.WorkCenterID, &op.Description, &op.Sequence,
		&op.SetupTime, &op.MachineTime, &op.LaborTime, &op.Status, &op.ControlKey, &op.CreatedAt, &op.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entities.NotFoundError("operation %s not found in routing %s", operationID, routingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}
	return &op, nil
}

func (r *routingRepository) UpdateOperation(ctx context.Context, op *entities.Operation) error {
	_, err := r.db.Exec(ctx, `
		UPDATE operations
		SET work_center_id = $3, description = $4, sequence = $5, setup_time = $6,
			machine_time = $7, labor_time = $8, status = $9, control_key = $10, updated_at = $11
		WHERE routing_id = $1 AND operation_id = $2
	`, op.RoutingID, op.OperationID, op.WorkCenterID, op.Description, op.Sequence,
		op.SetupTime, op.MachineTime, op.LaborTime, op.Status, op.ControlKey, op.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}
	return nil
}

func (r *routingRepository) OperationsByRouting(ctx context.Context, routingID string) ([]entities.Operation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+operationColumns+` FROM operations WHERE routing_id = $1 ORDER BY sequence
	`, routingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	var ops []entities.Operation
	for rows.Next() {
		var op entities.Operation
		if err := rows.Scan(&op.OperationID, &op.RoutingID, &op.WorkCenterID, &op.Description, &op.Sequence,
			&op.SetupTime, &op.MachineTime, &op.LaborTime, &op.Status, &op.ControlKey, &op.CreatedAt, &op.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func (r *routingRepository) CountOperations(ctx context.Context, routingID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM operations WHERE routing_id = $1", routingID).Scan(&count)
	return count, err
}
