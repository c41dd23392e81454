package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/matheusmosca/mrp-backend/internal/entities"
)

// ConfirmationRepository is the append-only ledger of operation
// confirmations.
type ConfirmationRepository interface {
	Create(ctx context.Context, c *entities.OperationConfirmation) error
	Get(ctx context.Context, confirmationID string) (*entities.OperationConfirmation, error)
	List(ctx context.Context, filter ConfirmationFilter) ([]entities.OperationConfirmation, error)
	ByOrder(ctx context.Context, orderID string) ([]entities.OperationConfirmation, error)
	CountFinalByOrder(ctx context.Context, orderID string) (int, error)
	TotalYieldByOrder(ctx context.Context, orderID string) (float64, error)
}

// ConfirmationFilter narrows confirmation listings.
type ConfirmationFilter struct {
	OrderID          string
	WorkCenterID     string
	OperationID      string
	ConfirmationType entities.ConfirmationType
	Status           string
	Limit            int
}

type confirmationRepository struct {
	db Querier
}

const confirmationColumns = `confirmation_id, order_id, operation_id, work_center_id, yield_qty, scrap_qty,
	setup_time_actual, machine_time_actual, labor_time_actual, start_time, end_time,
	confirmation_type, status, confirmed_by, created_at`

func (r *confirmationRepository) Create(ctx context.Context, c *entities.OperationConfirmation) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO operation_confirmations (`+confirmationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, c.ConfirmationID, c.OrderID, c.OperationID, c.WorkCenterID, c.YieldQty, c.ScrapQty,
		c.SetupTimeActual, c.MachineTimeActual, c.LaborTimeActual, c.StartTime, c.EndTime,
		c.ConfirmationType, c.Status, c.ConfirmedBy, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create confirmation: %w", err)
	}
	return nil
}

func (r *confirmationRepository) Get(ctx context.Context, confirmationID string) (*entities.OperationConfirmation, error) {
	var c entities.OperationConfirmation
	err := r.db.QueryRow(ctx,
		"SELECT "+confirmationColumns+" FROM operation_confirmations WHERE confirmation_id = $1",
		confirmationID,
	).Scan(&c.ConfirmationID, &c.OrderID, &c.OperationID, &c.WorkCenterID, &c.YieldQty, &c.ScrapQty,
		&c.SetupTimeActual, &c.MachineTimeActual, &c.LaborTimeActual, &c.StartTime, &c.EndTime,
		&c.ConfirmationType, &c.Status, &c.ConfirmedBy, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entities.NotFoundError("confirmation %s not found", confirmationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get confirmation: %w", err)
	}
	return &c, nil
}

func (r *confirmationRepository) List(ctx context.Context, filter ConfirmationFilter) ([]entities.OperationConfirmation, error) {
	query := "SELECT " + confirmationColumns + " FROM operation_confirmations WHERE 1=1"
	args := []any{}
	if filter.OrderID != "" {
		args = append(args, filter.OrderID)
		query += fmt.Sprintf(" AND order_id = $%d", len(args))
	}
	if filter.WorkCenterID != "" {
		args = append(args, filter.WorkCenterID)
		query += fmt.Sprintf(" AND work_center_id = $%d", len(args))
	}
	if filter.OperationID != "" {
		args = append(args, filter.OperationID)
		query += fmt.Sprintf(" AND operation_id = $%d", len(args))
	}
	if filter.ConfirmationType != "" {
		args = append(args, filter.ConfirmationType)
		query += fmt.Sprintf(" AND confirmation_type = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return r.queryConfirmations(ctx, query, args...)
}

func (r *confirmationRepository) ByOrder(ctx context.Context, orderID string) ([]entities.OperationConfirmation, error) {
	return r.queryConfirmations(ctx,
		"SELECT "+confirmationColumns+" FROM operation_confirmations WHERE order_id = $1 ORDER BY created_at",
		orderID)
}

func (r *confirmationRepository) queryConfirmations(ctx context.Context, query string, args ...any) ([]entities.OperationConfirmation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query confirmations: %w", err)
	}
	defer rows.Close()

	var confirmations []entities.OperationConfirmation
	for rows.Next() {
		var c entities.OperationConfirmation
		if err := rows.Scan(&c.ConfirmationID, &c.OrderID, &c.OperationID, &c.WorkCenterID, &c.YieldQty, &c.ScrapQty,
			&c.SetupTimeActual, &c.MachineTimeActual, &c.LaborTimeActual, &c.StartTime, &c.EndTime,
			&c.ConfirmationType, &c.Status, &c.ConfirmedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan confirmation: %w", err)
		}
		confirmations = append(confirmations, c)
	}
	return confirmations, rows.Err()
}

func (r *confirmationRepository) CountFinalByOrder(ctx context.Context, orderID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM operation_confirmations WHERE order_id = $1 AND confirmation_type = 'FINAL'",
		orderID).Scan(&count)
	return count, err
}

func (r *confirmationRepository) TotalYieldByOrder(ctx context.Context, orderID string) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx,
		"SELECT COALESCE(SUM(yield_qty), 0) FROM operation_confirmations WHERE order_id = $1",
		orderID).Scan(&total)
	return total, err
}
