package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/matheusmosca/mrp-backend/internal/entities"
	"github.com/matheusmosca/mrp-backend/internal/notify"
	"github.com/matheusmosca/mrp-backend/internal/repository"
)

// ConfirmationRequest carries one operation-level confirmation.
type ConfirmationRequest struct {
	OrderID           string    `json:"order_id"`
	OperationID       string    `json:"operation_id"`
	WorkCenterID      string    `json:"work_center_id"`
	YieldQty          float64   `json:"yield_qty"`
	ScrapQty          float64   `json:"scrap_qty"`
	SetupTimeActual   float64   `json:"setup_time_actual"`
	MachineTimeActual float64   `json:"machine_time_actual"`
	LaborTimeActual   float64   `json:"labor_time_actual"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	ConfirmationType  string    `json:"confirmation_type"`
	ConfirmedBy       string    `json:"confirmed_by"`
}

// ConfirmationResult is a posted confirmation together with its
// variances and the resulting order state.
type ConfirmationResult struct {
	Confirmation  *entities.OperationConfirmation `json:"confirmation"`
	Variances     entities.Variances              `json:"variances"`
	OrderStatus   entities.OrderStatus            `json:"order_status"`
	OrderProgress int                             `json:"order_progress"`
}

// OrderConfirmationDetail aggregates an order's confirmations with
// efficiency statistics.
type OrderConfirmationDetail struct {
	OrderID         string                           `json:"order_id"`
	OrderStatus     entities.OrderStatus             `json:"order_status"`
	OrderQuantity   float64                          `json:"order_quantity"`
	Confirmations   []entities.OperationConfirmation `json:"confirmations"`
	TotalYield      float64                          `json:"total_yield"`
	TotalScrap      float64                          `json:"total_scrap"`
	YieldEfficiency float64                          `json:"yield_efficiency_percent"`
	ScrapRate       float64                          `json:"scrap_rate_percent"`
	TimeEfficiency  float64                          `json:"time_efficiency_percent"`
}

// ConfirmationUseCase implements the operation confirmation engine:
// validation, variance calculation, automatic goods movements and
// order progress tracking.
type ConfirmationUseCase struct {
	store     repository.Store
	publisher Publisher
	logger    *slog.Logger
	locations Locations

	postedCounter metric.Int64Counter
}

// NewConfirmationUseCase wires the confirmation engine.
func NewConfirmationUseCase(store repository.Store, publisher Publisher, logger *slog.Logger, meter metric.Meter, locations Locations) *ConfirmationUseCase {
	uc := &ConfirmationUseCase{store: store, publisher: publisher, logger: logger, locations: locations}
	if uc.publisher == nil {
		uc.publisher = noopPublisher{}
	}
	if uc.locations == (Locations{}) {
		uc.locations = DefaultLocations()
	}
	if meter != nil {
		uc.postedCounter, _ = meter.Int64Counter("operation_confirmations_total")
	}
	return uc
}

// Create posts one operation confirmation atomically: referenced
// entities are validated, the confirmation stored, automatic movements
// attempted and the order's status and progress updated.
func (uc *ConfirmationUseCase) Create(ctx context.Context, req ConfirmationRequest) (*ConfirmationResult, error) {
	result := &ConfirmationResult{}
	var completed bool
	err := uc.store.InTx(ctx, func(s repository.Store) error {
		order, err := s.Orders().GetForUpdate(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if err := order.Confirmable(); err != nil {
			return err
		}
		if order.RoutingID == "" {
			return entities.NotFoundError("order %s has no routing assigned", order.OrderID)
		}

		op, err := s.Routings().GetOperation(ctx, order.RoutingID, req.OperationID)
		if err != nil {
			return err
		}
		wcExists, err := s.WorkCenters().Exists(ctx, req.WorkCenterID)
		if err != nil {
			return err
		}
		if !wcExists {
			return entities.NotFoundError("work center %s not found", req.WorkCenterID)
		}

		conf := &entities.OperationConfirmation{
			ConfirmationID:    entities.NewID("CNF"),
			OrderID:           req.OrderID,
			OperationID:       req.OperationID,
			WorkCenterID:      req.WorkCenterID,
			YieldQty:          req.YieldQty,
			ScrapQty:          req.ScrapQty,
			SetupTimeActual:   req.SetupTimeActual,
			MachineTimeActual: req.MachineTimeActual,
			LaborTimeActual:   req.LaborTimeActual,
			StartTime:         req.StartTime,
			EndTime:           req.EndTime,
			ConfirmationType:  entities.ConfirmationType(req.ConfirmationType),
			Status:            "CONFIRMED",
			ConfirmedBy:       req.ConfirmedBy,
			CreatedAt:         time.Now().UTC(),
		}
		if err := conf.Validate(); err != nil {
			return err
		}
		if err := s.Confirmations().Create(ctx, conf); err != nil {
			return err
		}

		result.Confirmation = conf
		result.Variances = entities.CalculateVariances(conf, op)

		uc.postAutomaticMovements(ctx, s, order, conf)

		if err := uc.updateOrderProgress(ctx, s, order, conf); err != nil {
			return err
		}
		result.OrderStatus = order.Status
		result.OrderProgress = order.Progress
		completed = order.Status == entities.OrderStatusCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.postedCounter != nil {
		uc.postedCounter.Add(ctx, 1)
	}
	uc.logger.Info("operation confirmation posted",
		"confirmation_id", result.Confirmation.ConfirmationID,
		"order_id", req.OrderID,
		"operation_id", req.OperationID,
		"yield", req.YieldQty)

	uc.publisher.Publish(notify.NewEvent(notify.EventConfirmationPosted, map[string]any{
		"confirmation_id": result.Confirmation.ConfirmationID,
		"order_id":        req.OrderID,
		"operation_id":    req.OperationID,
		"yield_qty":       req.YieldQty,
	}))
	if completed {
		uc.publisher.Publish(notify.NewEvent(notify.EventOrderCompleted, map[string]any{
			"order_id": req.OrderID,
		}))
	}
	return result, nil
}

// CreateBatch posts several confirmations in one transaction. Each
// entry gets the full single-confirmation validation; any rejection
// rolls the whole batch back.
func (uc *ConfirmationUseCase) CreateBatch(ctx context.Context, reqs []ConfirmationRequest) ([]*ConfirmationResult, error) {
	if len(reqs) == 0 {
		return nil, entities.ValidationError("no confirmations supplied")
	}

	results := make([]*ConfirmationResult, 0, len(reqs))
	var completedOrders []string
	err := uc.store.InTx(ctx, func(s repository.Store) error {
		for i, req := range reqs {
			order, err := s.Orders().GetForUpdate(ctx, req.OrderID)
			if err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			if err := order.Confirmable(); err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			if order.RoutingID == "" {
				return entities.NotFoundError("entry %d: order %s has no routing assigned", i, order.OrderID)
			}
			op, err := s.Routings().GetOperation(ctx, order.RoutingID, req.OperationID)
			if err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			wcExists, err := s.WorkCenters().Exists(ctx, req.WorkCenterID)
			if err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			if !wcExists {
				return entities.NotFoundError("entry %d: work center %s not found", i, req.WorkCenterID)
			}

			conf := &entities.OperationConfirmation{
				ConfirmationID:    entities.NewID("CNF"),
				OrderID:           req.OrderID,
				OperationID:       req.OperationID,
				WorkCenterID:      req.WorkCenterID,
				YieldQty:          req.YieldQty,
				ScrapQty:          req.ScrapQty,
				SetupTimeActual:   req.SetupTimeActual,
				MachineTimeActual: req.MachineTimeActual,
				LaborTimeActual:   req.LaborTimeActual,
				StartTime:         req.StartTime,
				EndTime:           req.EndTime,
				ConfirmationType:  entities.ConfirmationType(req.ConfirmationType),
				Status:            "CONFIRMED",
				ConfirmedBy:       req.ConfirmedBy,
				CreatedAt:         time.Now().UTC(),
			}
			if err := conf.Validate(); err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			if err := s.Confirmations().Create(ctx, conf); err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}

			uc.postAutomaticMovements(ctx, s, order, conf)

			if err := uc.updateOrderProgress(ctx, s, order, conf); err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			results = append(results, &ConfirmationResult{
				Confirmation:  conf,
				Variances:     entities.CalculateVariances(conf, op),
				OrderStatus:   order.Status,
				OrderProgress: order.Progress,
			})
			if order.Status == entities.OrderStatusCompleted {
				completedOrders = append(completedOrders, order.OrderID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.postedCounter != nil {
		uc.postedCounter.Add(ctx, int64(len(results)))
	}
	for _, r := range results {
		uc.publisher.Publish(notify.NewEvent(notify.EventConfirmationPosted, map[string]any{
			"confirmation_id": r.Confirmation.ConfirmationID,
			"order_id":        r.Confirmation.OrderID,
			"operation_id":    r.Confirmation.OperationID,
			"yield_qty":       r.Confirmation.YieldQty,
		}))
	}
	for _, orderID := range completedOrders {
		uc.publisher.Publish(notify.NewEvent(notify.EventOrderCompleted, map[string]any{
			"order_id": orderID,
		}))
	}
	return results, nil
}

// postAutomaticMovements derives goods movements from a confirmation in
// a savepoint. Movement failures are logged and swallowed: the
// confirmation itself must survive, the movements are best effort.
func (uc *ConfirmationUseCase) postAutomaticMovements(ctx context.Context, s repository.Store, order *entities.ProductionOrder, conf *entities.OperationConfirmation) {
	err := s.InTx(ctx, func(nested repository.Store) error {
		if conf.ConfirmationType == entities.ConfirmationFinal && conf.YieldQty > 0 {
			receipt := entities.NewGoodsMovement(entities.MovementReceipt, order.MaterialID, conf.YieldQty, order.Plant, uc.locations.FinishedGoods)
			receipt.OrderID = order.OrderID
			receipt.Reference = fmt.Sprintf("Confirmation %s", conf.ConfirmationID)
			if err := postMovement(ctx, nested, receipt, false); err != nil {
				return err
			}
		}

		if conf.ScrapQty > 0 {
			scrap := entities.NewGoodsMovement(entities.MovementAdjustment, order.MaterialID, -conf.ScrapQty, order.Plant, uc.locations.Scrap)
			scrap.OrderID = order.OrderID
			scrap.Reference = fmt.Sprintf("Scrap on confirmation %s", conf.ConfirmationID)
			if err := postMovement(ctx, nested, scrap, true); err != nil {
				return err
			}
		}

		headers, err := nested.BOMs().HeadersByParent(ctx, order.MaterialID)
		if err != nil {
			return err
		}
		for _, header := range headers {
			items, err := nested.BOMs().ItemsByBOM(ctx, header.BOMID)
			if err != nil {
				return err
			}
			for _, item := range items {
				issue := entities.NewGoodsMovement(entities.MovementIssue, item.ComponentMaterialID, item.Quantity*conf.YieldQty, order.Plant, uc.locations.RawMaterials)
				issue.OrderID = order.OrderID
				issue.Reference = fmt.Sprintf("Backflush on confirmation %s", conf.ConfirmationID)
				if err := postMovement(ctx, nested, issue, true); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		uc.logger.Warn("automatic goods movements failed",
			"confirmation_id", conf.ConfirmationID, "order_id", order.OrderID, "error", err)
	}
}

// updateOrderProgress recomputes the order's status and progress after
// a confirmation. A FINAL confirmation on every routing operation
// completes the order; otherwise progress tracks confirmed operations,
// capped below 100.
func (uc *ConfirmationUseCase) updateOrderProgress(ctx context.Context, s repository.Store, order *entities.ProductionOrder, conf *entities.OperationConfirmation) error {
	if order.ActualStartDate == nil {
		order.ActualStartDate = &conf.StartTime
	}

	if conf.ConfirmationType == entities.ConfirmationFinal {
		finals, err := s.Confirmations().CountFinalByOrder(ctx, order.OrderID)
		if err != nil {
			return err
		}
		total, err := s.Routings().CountOperations(ctx, order.RoutingID)
		if err != nil {
			return err
		}
		if total > 0 && finals >= total {
			order.Status = entities.OrderStatusCompleted
			order.Progress = 100
			order.ActualEndDate = &conf.EndTime
		} else {
			order.Status = entities.OrderStatusInProgress
			if total > 0 {
				order.Progress = boundedProgress(float64(finals)/float64(total)*100, 95)
			}
		}
	} else {
		order.Status = entities.OrderStatusInProgress
		totalYield, err := s.Confirmations().TotalYieldByOrder(ctx, order.OrderID)
		if err != nil {
			return err
		}
		if order.Quantity > 0 {
			order.Progress = boundedProgress(totalYield/order.Quantity*100, 90)
		}
	}
	order.UpdatedAt = time.Now().UTC()
	return s.Orders().Update(ctx, order)
}

// Get returns one confirmation by ID.
func (uc *ConfirmationUseCase) Get(ctx context.Context, confirmationID string) (*entities.OperationConfirmation, error) {
	return uc.store.Confirmations().Get(ctx, confirmationID)
}

// List returns confirmations matching the filter.
func (uc *ConfirmationUseCase) List(ctx context.Context, filter repository.ConfirmationFilter) ([]entities.OperationConfirmation, error) {
	return uc.store.Confirmations().List(ctx, filter)
}

// OrderDetail aggregates an order's confirmations with yield, scrap and
// time efficiency statistics.
func (uc *ConfirmationUseCase) OrderDetail(ctx context.Context, orderID string) (*OrderConfirmationDetail, error) {
	order, err := uc.store.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	confs, err := uc.store.Confirmations().ByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	detail := &OrderConfirmationDetail{
		OrderID:       orderID,
		OrderStatus:   order.Status,
		OrderQuantity: order.Quantity,
		Confirmations: confs,
	}

	var plannedTime, actualTime float64
	ops := map[string]*entities.Operation{}
	for _, c := range confs {
		detail.TotalYield += c.YieldQty
		detail.TotalScrap += c.ScrapQty
		actualTime += c.SetupTimeActual + c.MachineTimeActual + c.LaborTimeActual

		if order.RoutingID == "" || c.OperationID == "" {
			continue
		}
		op, ok := ops[c.OperationID]
		if !ok {
			op, err = uc.store.Routings().GetOperation(ctx, order.RoutingID, c.OperationID)
			if err != nil {
				continue
			}
			ops[c.OperationID] = op
		}
		plannedTime += op.PlannedTotal()
	}

	if order.Quantity > 0 {
		detail.YieldEfficiency = detail.TotalYield / order.Quantity * 100
	}
	if produced := detail.TotalYield + detail.TotalScrap; produced > 0 {
		detail.ScrapRate = detail.TotalScrap / produced * 100
	}
	if actualTime > 0 && plannedTime > 0 {
		detail.TimeEfficiency = plannedTime / actualTime * 100
	}
	return detail, nil
}
