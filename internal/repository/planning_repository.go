package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/mrp-backend/internal/entities"
)

// PlanningRepository stores MRP run output: planned orders and purchase
// requisitions.
type PlanningRepository interface {
	CreatePlannedOrder(ctx context.Context, po *entities.PlannedOrder) error
	GetPlannedOrderForUpdate(ctx context.Context, plannedOrderID string) (*entities.PlannedOrder, error)
	UpdatePlannedOrderStatus(ctx context.Context, plannedOrderID string, status entities.PlannedOrderStatus) error
	ListPlannedOrders(ctx context.Context, filter PlanningFilter) ([]entities.PlannedOrder, error)
	CreatePurchaseRequisition(ctx context.Context, pr *entities.PurchaseRequisition) error
	ListPurchaseRequisitions(ctx context.Context, filter PlanningFilter) ([]entities.PurchaseRequisition, error)
}

// PlanningFilter narrows planned order and requisition listings.
type PlanningFilter struct {
	MaterialID string
	Plant      string
	Status     string
	MRPRunID   string
}

type planningRepository struct {
	db Querier
}

const plannedOrderColumns = `planned_order_id, material_id, quantity, due_date, start_date, plant,
	mrp_controller, order_type, status, created_by_mrp_run, created_at`

const requisitionColumns = `pr_number, material_id, quantity, delivery_date, plant,
	purchasing_group, status, created_by_mrp_run, created_at`

func (r *planningRepository) CreatePlannedOrder(ctx context.Context, po *entities.PlannedOrder) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO planned_orders (`+plannedOrderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, po.PlannedOrderID, po.MaterialID, po.Quantity, po.DueDate, po.StartDate, po.Plant,
		po.MRPController, po.OrderType, po.Status, po.CreatedByMRPRun, po.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create planned order: %w", err)
	}
	return nil
}

func (r *planningRepository) GetPlannedOrderForUpdate(ctx context.Context, plannedOrderID string) (*entities.PlannedOrder, error) {
	var po entities.PlannedOrder
	err := r.db.QueryRow(ctx,
		"SELECT "+plannedOrderColumns+" FROM planned_orders WHERE planned_order_id = $1 FOR UPDATE",
		plannedOrderID,
	).Scan(&po.PlannedOrderID, &po.MaterialID, &po.Quantity, &po.DueDate, &po.StartDate, &po.Plant,
		&po.MRPController, &po.OrderType, &po.Status, &po.CreatedByMRPRun, &po.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entities.NotFoundError("planned order %s not found", plannedOrderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get planned order: %w", err)
	}
	return &po, nil
}

func (r *planningRepository) UpdatePlannedOrderStatus(ctx context.Context, plannedOrderID string, status entities.PlannedOrderStatus) error {
	_, err := r.db.Exec(ctx,
		"UPDATE planned_orders SET status = $2 WHERE planned_order_id = $1",
		plannedOrderID, status)
	if err != nil {
		return fmt.Errorf("failed to update planned order status: %w", err)
	}
	return nil
}

func (r *planningRepository) ListPlannedOrders(ctx context.Context, filter PlanningFilter) ([]entities.PlannedOrder, error) {
	query := "SELECT " + plannedOrderColumns + " FROM planned_orders WHERE 1=1"
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
	if filter.MRPRunID != "" {
		args = append(args, filter.MRPRunID)
		query += fmt.Sprintf(" AND created_by_mrp_run = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query planned orders: %w", err)
	}
	defer rows.Close()

	var orders []entities.PlannedOrder
	for rows.Next() {
		var po entities.PlannedOrder
		if err := rows.Scan(&po.PlannedOrderID, &po.MaterialID, &po.Quantity, &po.DueDate, &po.StartDate, &po.Plant,
			&po.MRPController, &po.OrderType, &po.Status, &po.CreatedByMRPRun, &po.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan planned order: %w", err)
		}
		orders = append(orders, po)
	}
	return orders, rows.Err()
}

func (r *planningRepository) CreatePurchaseRequisition(ctx context.Context, pr *entities.PurchaseRequisition) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO purchase_requisitions (`+requisitionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, pr.PRNumber, pr.MaterialID, pr.Quantity, pr.DeliveryDate, pr.Plant,
		pr.PurchasingGroup, pr.Status, pr.CreatedByMRPRun, pr.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create purchase requisition: %w", err)
	}
	return nil
}

func (r *planningRepository) ListPurchaseRequisitions(ctx context.Context, filter PlanningFilter) ([]entities.PurchaseRequisition, error) {
	query := "SELECT " + requisitionColumns + " FROM purchase_requisitions WHERE 1=1"
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
	if filter.MRPRunID != "" {
		args = append(args, filter.MRPRunID)
		query += fmt.Sprintf(" AND created_by_mrp_run = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase requisitions: %w", err)
	}
	defer rows.Close()

	var reqs []entities.PurchaseRequisition
	for rows.Next() {
		var pr entities.PurchaseRequisition
		if err := rows.Scan(&pr.PRNumber, &pr.MaterialID, &pr.Quantity, &pr.DeliveryDate, &pr.Plant,
			&pr.PurchasingGroup, &pr.Status, &pr.CreatedByMRPRun, &pr.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase requisition: %w", err)
		}
		reqs = append(reqs, pr)
	}
	return reqs, rows.Err()
}
