package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/mrp-backend/internal/entities"
)

// OrderRepository provides access to production orders.
type OrderRepository interface {
	Create(ctx context.Context, o *entities.ProductionOrder) error
	Get(ctx context.Context, orderID string) (*entities.ProductionOrder, error)
	// GetForUpdate locks the order row for the enclosing transaction so
	// concurrent confirmations cannot race on status and progress.
	GetForUpdate(ctx context.Context, orderID string) (*entities.ProductionOrder, error)
	Update(ctx context.Context, o *entities.ProductionOrder) error
	List(ctx context.Context, filter OrderFilter) ([]entities.ProductionOrder, error)
	ListOpenWithinHorizon(ctx context.Context, horizonEnd time.Time, plant string) ([]entities.ProductionOrder, error)
	CountByRouting(ctx context.Context, routingID string) (int, error)
	CountByStatus(ctx context.Context, statuses []entities.OrderStatus) (int, error)
	CountAll(ctx context.Context) (int, error)
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	Status entities.OrderStatus
	Plant  string
}

type orderRepository struct {
	db Querier
}

const orderColumns = `order_id, material_id, description, quantity, status, priority, progress,
	planned_start_date, planned_end_date, actual_start_date, actual_end_date, due_date,
	work_center_id, routing_id, cost_center, plant, created_at, updated_at`

func (r *orderRepository) scanOrder(row pgx.Row) (*entities.ProductionOrder, error) {
	var o entities.ProductionOrder
	err := row.Scan(&o.OrderID, &o.MaterialID, &o.Description, &o.Quantity, &o.Status, &o.Priority, &o.Progress,
		&o.PlannedStartDate, &o.PlannedEndDate, &o.ActualStartDate, &o.ActualEndDate, &o.DueDate,
		&o.WorkCenterID, &o.RoutingID, &o.CostCenter, &o.Plant, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, o *entities.ProductionOrder) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO production_orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, o.OrderID, o.MaterialID, o.Description, o.Quantity, o.Status, o.Priority, o.Progress,
		o.PlannedStartDate, o.PlannedEndDate, o.ActualStartDate, o.ActualEndDate, o.DueDate,
		o.WorkCenterID, o.RoutingID, o.CostCenter, o.Plant, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create production order: %w", err)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, orderID string) (*entities.ProductionOrder, error) {
	return r.get(ctx, orderID, "")
}

func (r *orderRepository) GetForUpdate(ctx context.Context, orderID string) (*entities.ProductionOrder, error) {
	return r.get(ctx, orderID, " FOR UPDATE")
}

func (r *orderRepository) get(ctx context.Context, orderID, suffix string) (*entities.ProductionOrder, error) {
	o, err := r.scanOrder(r.db.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM production_orders WHERE order_id = $1"+suffix, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entities.NotFoundError("production order %s not found", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get production order: %w", err)
	}
	return o, nil
}

func (r *orderRepository) Update(ctx context.Context, o *entities.ProductionOrder) error {
	_, err := r.db.Exec(ctx, `
		UPDATE production_orders
		SET material_id = $2, description = $3, quantity = $4, status = $5, priority = $6,
			progress = $7, planned_start_date = $8, planned_end_date = $9, actual_start_date = $10,
			actual_end_date = $11, due_date = $12, work_center_id = $13, routing_id = $14,
			cost_center = $15, plant = $16, updated_at = $17
		WHERE order_id = $1
	`, o.OrderID, o.MaterialID, o.Description, o.Quantity, o.Status, o.Priority,
		o.Progress, o.PlannedStartDate, o.PlannedEndDate, o.ActualStartDate,
		o.ActualEndDate, o.DueDate, o.WorkCenterID, o.RoutingID,
		o.CostCenter, o.Plant, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update production order: %w", err)
	}
	return nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]entities.ProductionOrder, error) {
	query := "SELECT " + orderColumns + " FROM production_orders WHERE 1=1"
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Plant != "" {
		args = append(args, filter.Plant)
		query += fmt.Sprintf(" AND plant = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	return r.queryOrders(ctx, query, args...)
}

// ListOpenWithinHorizon selects the MRP demand set: open orders due
// inside the planning horizon, optionally restricted to one plant.
func (r *orderRepository) ListOpenWithinHorizon(ctx context.Context, horizonEnd time.Time, plant string) ([]entities.ProductionOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM production_orders
		WHERE status IN ('CREATED', 'RELEASED', 'IN_PROGRESS') AND due_date <= $1`
	args := []any{horizonEnd}
	if plant != "" {
		args = append(args, plant)
		query += fmt.Sprintf(" AND plant = $%d", len(args))
	}
	query += " ORDER BY due_date"
	return r.queryOrders(ctx, query, args...)
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]entities.ProductionOrder, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query production orders: %w", err)
	}
	defer rows.Close()

	var orders []entities.ProductionOrder
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan production order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *orderRepository) CountByRouting(ctx context.Context, routingID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM production_orders WHERE routing_id = $1", routingID).Scan(&count)
	return count, err
}

func (r *orderRepository) CountByStatus(ctx context.Context, statuses []entities.OrderStatus) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM production_orders WHERE status = ANY($1)", statuses).Scan(&count)
	return count, err
}

func (r *orderRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM production_orders").Scan(&count)
	return count, err
}
