package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/matheusmosca/mrp-backend/internal/entities"
	"github.com/matheusmosca/mrp-backend/internal/notify"
	"github.com/matheusmosca/mrp-backend/internal/repository"
)

const systemUser = "SYSTEM"

// CreateOrderRequest carries a new production order.
type CreateOrderRequest struct {
	MaterialID   string                 `json:"material_id"`
	Description  string                 `json:"description"`
	Quantity     float64                `json:"quantity"`
	DueDate      time.Time              `json:"due_date"`
	Priority     entities.OrderPriority `json:"priority"`
	Plant        string                 `json:"plant"`
	CostCenter   string                 `json:"cost_center"`
	RoutingID    string                 `json:"routing_id"`
	WorkCenterID string                 `json:"work_center_id"`
}

// SimpleConfirmRequest is the order-level confirmation without
// operation granularity.
type SimpleConfirmRequest struct {
	YieldQty    float64   `json:"yield_qty"`
	ScrapQty    float64   `json:"scrap_qty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	ConfirmedBy string    `json:"confirmed_by"`
}

// ChangeRequest is one proposed field change on an order.
type ChangeRequest struct {
	FieldName string `json:"field_name"`
	NewValue  string `json:"new_value"`
	Reason    string `json:"reason"`
	ChangedBy string `json:"changed_by"`
}

// BulkChangeResult reports the outcome of a multi-field change.
type BulkChangeResult struct {
	OrderID string                        `json:"order_id"`
	Applied []entities.OrderChangeHistory `json:"applied"`
}

// OrderUseCase implements the production order lifecycle and change
// management.
type OrderUseCase struct {
	store     repository.Store
	publisher Publisher
	logger    *slog.Logger
	locations Locations
	plant     string

	createdCounter metric.Int64Counter
	changedCounter metric.Int64Counter
}

// NewOrderUseCase wires the order lifecycle logic.
func NewOrderUseCase(store repository.Store, publisher Publisher, logger *slog.Logger, meter metric.Meter, locations Locations, plant string) *OrderUseCase {
	uc := &OrderUseCase{store: store, publisher: publisher, logger: logger, locations: locations, plant: plant}
	if uc.publisher == nil {
		uc.publisher = noopPublisher{}
	}
	if uc.locations == (Locations{}) {
		uc.locations = DefaultLocations()
	}
	if uc.plant == "" {
		uc.plant = defaultPlant
	}
	if meter != nil {
		uc.createdCounter, _ = meter.Int64Counter("production_orders_created_total")
		uc.changedCounter, _ = meter.Int64Counter("order_changes_applied_total")
	}
	return uc
}

// Create validates the referenced master data and persists a new order
// in CREATED status.
func (uc *OrderUseCase) Create(ctx context.Context, req CreateOrderRequest) (*entities.ProductionOrder, error) {
	if req.Quantity <= 0 {
		return nil, entities.ValidationError("quantity must be greater than 0")
	}
	if req.Priority == "" {
		req.Priority = entities.PriorityMedium
	}
	if !entities.ValidOrderPriority(req.Priority) {
		return nil, entities.ValidationError("invalid priority %q", req.Priority)
	}
	if req.Plant == "" {
		req.Plant = uc.plant
	}

	exists, err := uc.store.Materials().Exists(ctx, req.MaterialID)
	if err != nil {
		return nil, fmt.Errorf("checking material: %w", err)
	}
	if !exists {
		return nil, entities.NotFoundError("material %s not found", req.MaterialID)
	}
	if req.RoutingID != "" {
		ok, err := uc.store.Routings().Exists(ctx, req.RoutingID)
		if err != nil {
			return nil, fmt.Errorf("checking routing: %w", err)
		}
		if !ok {
			return nil, entities.NotFoundError("routing %s not found", req.RoutingID)
		}
	}

	order := entities.NewProductionOrder(req.MaterialID, req.Quantity, req.DueDate, req.Priority, req.Plant, req.CostCenter)
	order.Description = req.Description
	order.RoutingID = req.RoutingID
	order.WorkCenterID = req.WorkCenterID
	if err := uc.store.Orders().Create(ctx, order); err != nil {
		return nil, err
	}

	if uc.createdCounter != nil {
		uc.createdCounter.Add(ctx, 1)
	}
	uc.logger.Info("production order created", "order_id", order.OrderID, "material_id", order.MaterialID)
	uc.publisher.Publish(notify.NewEvent(notify.EventOrderCreated, map[string]any{
		"order_id":    order.OrderID,
		"material_id": order.MaterialID,
		"quantity":    order.Quantity,
	}))
	return order, nil
}

// Get returns one order by ID.
func (uc *OrderUseCase) Get(ctx context.Context, orderID string) (*entities.ProductionOrder, error) {
	return uc.store.Orders().Get(ctx, orderID)
}

// List returns orders matching the filter.
func (uc *OrderUseCase) List(ctx context.Context, filter repository.OrderFilter) ([]entities.ProductionOrder, error) {
	return uc.store.Orders().List(ctx, filter)
}

// Release moves a CREATED order to RELEASED under a row lock.
func (uc *OrderUseCase) Release(ctx context.Context, orderID string) (*entities.ProductionOrder, error) {
	var order *entities.ProductionOrder
	err := uc.store.InTx(ctx, func(s repository.Store) error {
		var err error
		order, err = s.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Release(); err != nil {
			return err
		}
		return s.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("production order released", "order_id", orderID)
	uc.publisher.Publish(notify.NewEvent(notify.EventOrderReleased, map[string]any{
		"order_id": orderID,
	}))
	return order, nil
}

// ConfirmSimple posts an order-level confirmation without operation
// granularity. Cumulative yield reaching the order quantity completes
// the order.
func (uc *OrderUseCase) ConfirmSimple(ctx context.Context, orderID string, req SimpleConfirmRequest) (*entities.OperationConfirmation, error) {
	conf := &entities.OperationConfirmation{
		ConfirmationID:   entities.NewID("CNF"),
		OrderID:          orderID,
		YieldQty:         req.YieldQty,
		ScrapQty:         req.ScrapQty,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		ConfirmationType: entities.ConfirmationPartial,
		Status:           "CONFIRMED",
		ConfirmedBy:      req.ConfirmedBy,
		CreatedAt:        time.Now().UTC(),
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	var completed bool
	err := uc.store.InTx(ctx, func(s repository.Store) error {
		order, err := s.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Confirmable(); err != nil {
			return err
		}
		if err := s.Confirmations().Create(ctx, conf); err != nil {
			return err
		}

		totalYield, err := s.Confirmations().TotalYieldByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if order.ActualStartDate == nil {
			order.ActualStartDate = &conf.StartTime
		}
		if totalYield >= order.Quantity {
			order.Status = entities.OrderStatusCompleted
			order.Progress = 100
			order.ActualEndDate = &conf.EndTime
			completed = true
		} else {
			order.Status = entities.OrderStatusInProgress
			order.Progress = boundedProgress(totalYield/order.Quantity*100, 90)
		}
		order.UpdatedAt = now
		return s.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("order confirmation posted", "order_id", orderID, "confirmation_id", conf.ConfirmationID, "completed", completed)
	uc.publisher.Publish(notify.NewEvent(notify.EventConfirmationPosted, map[string]any{
		"order_id":        orderID,
		"confirmation_id": conf.ConfirmationID,
		"yield_qty":       conf.YieldQty,
	}))
	if completed {
		uc.publisher.Publish(notify.NewEvent(notify.EventOrderCompleted, map[string]any{
			"order_id": orderID,
		}))
	}
	return conf, nil
}

// Complete force-finishes an order: it issues every BOM component,
// receives the produced quantity into finished goods and closes the
// order, all in one transaction.
func (uc *OrderUseCase) Complete(ctx context.Context, orderID string) (*entities.ProductionOrder, error) {
	var order *entities.ProductionOrder
	err := uc.store.InTx(ctx, func(s repository.Store) error {
		var err error
		order, err = s.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status.Terminal() {
			return entities.ConflictError("order %s is already %s", orderID, order.Status)
		}

		components := map[string]float64{}
		if err := NewBOMExploder(s.BOMs()).Explode(ctx, order.MaterialID, order.Quantity, components); err != nil {
			return err
		}
		for componentID, qty := range components {
			mv := entities.NewGoodsMovement(entities.MovementIssue, componentID, qty, order.Plant, uc.locations.RawMaterials)
			mv.OrderID = order.OrderID
			mv.Reference = fmt.Sprintf("Backflush for order %s", order.OrderID)
			if err := postMovement(ctx, s, mv, true); err != nil {
				return err
			}
		}

		receipt := entities.NewGoodsMovement(entities.MovementReceipt, order.MaterialID, order.Quantity, order.Plant, uc.locations.FinishedGoods)
		receipt.OrderID = order.OrderID
		receipt.Reference = fmt.Sprintf("Completion of order %s", order.OrderID)
		if err := postMovement(ctx, s, receipt, false); err != nil {
			return err
		}

		now := time.Now().UTC()
		order.Status = entities.OrderStatusCompleted
		order.Progress = 100
		order.ActualEndDate = &now
		if order.ActualStartDate == nil {
			order.ActualStartDate = &now
		}
		order.UpdatedAt = now
		return s.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("production order completed", "order_id", orderID)
	uc.publisher.Publish(notify.NewEvent(notify.EventOrderCompleted, map[string]any{
		"order_id":    orderID,
		"material_id": order.MaterialID,
		"quantity":    order.Quantity,
	}))
	return order, nil
}

// Change applies one field change after impact analysis. A blocking
// issue rejects the change with no mutation and no audit record.
func (uc *OrderUseCase) Change(ctx context.Context, orderID string, req ChangeRequest) (*entities.OrderChangeHistory, error) {
	var record *entities.OrderChangeHistory
	err := uc.store.InTx(ctx, func(s repository.Store) error {
		order, err := s.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		record, err = uc.applyChange(ctx, s, order, req)
		if err != nil {
			return err
		}
		return s.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	if uc.changedCounter != nil {
		uc.changedCounter.Add(ctx, 1)
	}
	uc.logger.Info("order change applied", "order_id", orderID, "field", req.FieldName)
	uc.publisher.Publish(notify.NewEvent(notify.EventOrderChanged, map[string]any{
		"order_id":  orderID,
		"field":     req.FieldName,
		"old_value": record.OldValue,
		"new_value": record.NewValue,
	}))
	return record, nil
}

// BulkChange applies several field changes atomically. Any rejected
// change rolls back every change in the batch.
func (uc *OrderUseCase) BulkChange(ctx context.Context, orderID string, reqs []ChangeRequest) (*BulkChangeResult, error) {
	if len(reqs) == 0 {
		return nil, entities.ValidationError("no changes supplied")
	}

	result := &BulkChangeResult{OrderID: orderID}
	err := uc.store.InTx(ctx, func(s repository.Store) error {
		order, err := s.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		for _, req := range reqs {
			record, err := uc.applyChange(ctx, s, order, req)
			if err != nil {
				return err
			}
			result.Applied = append(result.Applied, *record)
		}
		return s.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	if uc.changedCounter != nil {
		uc.changedCounter.Add(ctx, int64(len(result.Applied)))
	}
	uc.publisher.Publish(notify.NewEvent(notify.EventOrderChanged, map[string]any{
		"order_id": orderID,
		"changes":  len(result.Applied),
	}))
	return result, nil
}

// applyChange runs impact analysis, mutates the order and writes the
// audit record. Callers persist the order afterwards.
func (uc *OrderUseCase) applyChange(ctx context.Context, s repository.Store, order *entities.ProductionOrder, req ChangeRequest) (*entities.OrderChangeHistory, error) {
	analysis, err := uc.analyzeImpact(ctx, s, order, req.FieldName, req.NewValue)
	if err != nil {
		return nil, err
	}
	if analysis.Blocked() {
		return nil, entities.BlockedError("change rejected: %s", analysis.BlockingIssues[0])
	}

	if req.FieldName == "routingId" && req.NewValue != "" {
		ok, err := s.Routings().Exists(ctx, req.NewValue)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, entities.NotFoundError("routing %s not found", req.NewValue)
		}
	}

	oldValue, err := order.ApplyChange(req.FieldName, req.NewValue)
	if err != nil {
		return nil, err
	}

	changedBy := req.ChangedBy
	if changedBy == "" {
		changedBy = systemUser
	}
	record := &entities.OrderChangeHistory{
		ChangeID:        entities.NewID("CHG"),
		OrderID:         order.OrderID,
		ChangeType:      analysis.ChangeType,
		FieldName:       req.FieldName,
		OldValue:        oldValue,
		NewValue:        req.NewValue,
		Reason:          req.Reason,
		ChangedBy:       changedBy,
		ChangeTimestamp: time.Now().UTC(),
	}
	if err := s.History().Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// AnalyzeImpact evaluates a proposed change without applying it.
func (uc *OrderUseCase) AnalyzeImpact(ctx context.Context, orderID, fieldName, newValue string) (*entities.ImpactAnalysis, error) {
	order, err := uc.store.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return uc.analyzeImpact(ctx, uc.store, order, fieldName, newValue)
}

func (uc *OrderUseCase) analyzeImpact(ctx context.Context, s repository.Store, order *entities.ProductionOrder, fieldName, newValue string) (*entities.ImpactAnalysis, error) {
	analysis := &entities.ImpactAnalysis{
		FieldName:      fieldName,
		ProposedValue:  newValue,
		Impacts:        []string{},
		Warnings:       []string{},
		BlockingIssues: []string{},
	}

	if order.Status.Terminal() {
		analysis.BlockingIssues = append(analysis.BlockingIssues,
			fmt.Sprintf("order %s is %s and cannot be changed", order.OrderID, order.Status))
	}
	if order.Status == entities.OrderStatusInProgress && order.Progress > 50 {
		analysis.Warnings = append(analysis.Warnings,
			fmt.Sprintf("order is %d%% complete, changes may cause rework", order.Progress))
	}

	switch fieldName {
	case "quantity":
		analysis.ChangeType = entities.ChangeTypeQuantity
		analysis.CurrentValue = strconv.FormatFloat(order.Quantity, 'f', -1, 64)
		newQty, err := strconv.ParseFloat(newValue, 64)
		if err != nil || newQty <= 0 {
			analysis.BlockingIssues = append(analysis.BlockingIssues, "Invalid quantity value")
			return analysis, nil
		}
		delta := newQty - order.Quantity
		if delta > 0 {
			analysis.Impacts = append(analysis.Impacts,
				fmt.Sprintf("Additional %.2f units of component demand", delta))
			uc.warnComponentAvailability(ctx, s, order, delta, analysis)
		} else if delta < 0 {
			analysis.Impacts = append(analysis.Impacts,
				fmt.Sprintf("Reduced demand by %.2f units, excess components may remain staged", -delta))
		}
	case "dueDate":
		analysis.ChangeType = entities.ChangeTypeDate
		analysis.CurrentValue = order.DueDate.Format(time.RFC3339)
		newDue, err := entities.ParseChangeDate(newValue)
		if err != nil {
			analysis.BlockingIssues = append(analysis.BlockingIssues, "Invalid date format")
			return analysis, nil
		}
		if newDue.Before(order.DueDate) {
			analysis.Impacts = append(analysis.Impacts, "Earlier due date requires expediting")
			analysis.Warnings = append(analysis.Warnings, "Verify material availability for the earlier date")
		} else if newDue.After(order.DueDate) {
			analysis.Impacts = append(analysis.Impacts, "Later due date delays delivery")
		}
	case "routingId":
		analysis.ChangeType = entities.ChangeTypeRouting
		analysis.CurrentValue = order.RoutingID
		analysis.Impacts = append(analysis.Impacts, "Operation sequence and planned times change")
		analysis.Warnings = append(analysis.Warnings, "Existing confirmations reference the old routing's operations")
	case "priority":
		analysis.ChangeType = entities.ChangeTypeOperation
		analysis.CurrentValue = string(order.Priority)
		analysis.Impacts = append(analysis.Impacts, "Scheduling order on shared work centers changes")
	case "description":
		analysis.ChangeType = entities.ChangeTypeOperation
		analysis.CurrentValue = order.Description
	default:
		analysis.BlockingIssues = append(analysis.BlockingIssues,
			fmt.Sprintf("field %q is not changeable", fieldName))
	}
	return analysis, nil
}

// warnComponentAvailability walks the BOM for a quantity increase and
// flags components whose stock cannot cover the extra demand. Analysis
// must never fail the change, so lookup errors only log.
func (uc *OrderUseCase) warnComponentAvailability(ctx context.Context, s repository.Store, order *entities.ProductionOrder, deltaQty float64, analysis *entities.ImpactAnalysis) {
	components := map[string]float64{}
	if err := NewBOMExploder(s.BOMs()).Explode(ctx, order.MaterialID, deltaQty, components); err != nil {
		uc.logger.Warn("impact analysis BOM walk failed", "order_id", order.OrderID, "error", err)
		return
	}
	for componentID, need := range components {
		stock, err := s.Stocks().Get(ctx, componentID, order.Plant)
		if err != nil {
			if entities.KindOf(err) != entities.KindNotFound {
				uc.logger.Warn("impact analysis stock lookup failed", "material_id", componentID, "error", err)
				continue
			}
			analysis.Warnings = append(analysis.Warnings,
				fmt.Sprintf("No stock record for component %s (need %.2f more)", componentID, need))
			continue
		}
		// Available excludes safety stock, which stays reserved.
		if available := stock.Available(); available < need {
			analysis.Warnings = append(analysis.Warnings,
				fmt.Sprintf("Component %s short: need %.2f more, %.2f available", componentID, need, available))
		}
	}
}

// History returns the audit trail of one order, oldest first.
func (uc *OrderUseCase) History(ctx context.Context, orderID string) ([]entities.OrderChangeHistory, error) {
	if _, err := uc.store.Orders().Get(ctx, orderID); err != nil {
		return nil, err
	}
	return uc.store.History().ByOrder(ctx, orderID)
}

// ListChanges returns audit records across orders matching the filter.
func (uc *OrderUseCase) ListChanges(ctx context.Context, filter repository.HistoryFilter) ([]entities.OrderChangeHistory, error) {
	return uc.store.History().List(ctx, filter)
}

// boundedProgress clamps a computed percentage to [0, max], leaving 100
// for actual completion.
func boundedProgress(pct float64, max int) int {
	p := int(pct)
	if p > max {
		return max
	}
	if p < 0 {
		return 0
	}
	return p
}
