package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/matheusmosca/mrp-backend/internal/entities"
	"github.com/matheusmosca/mrp-backend/internal/notify"
	"github.com/matheusmosca/mrp-backend/internal/repository"
)

const (
	defaultPlanningHorizonDays = 90
	defaultPlant               = "1000"

	// Scheduling offsets applied to generated supply proposals.
	plannedOrderLeadTime    = 7 * 24 * time.Hour
	requisitionDeliveryGap  = 3 * 24 * time.Hour
	plannedOrderType        = "PP"
	plannedOrderIDPrefix    = "PL"
	requisitionIDPrefix     = "PR"
	defaultPurchasingGroup  = "001"
	defaultMRPControllerKey = "MRP1"
)

// MRPRunRequest parameterizes a planning run. Zero values fall back to
// the defaults: a 90-day horizon over plant 1000 and all materials.
type MRPRunRequest struct {
	PlanningHorizonDays int      `json:"planning_horizon_days"`
	Plant               string   `json:"plant"`
	MaterialIDs         []string `json:"material_ids"`
}

// MRPShortage is one uncovered demand found by a run.
type MRPShortage struct {
	MaterialID   string  `json:"material_id"`
	RequiredQty  float64 `json:"required_qty"`
	AvailableQty float64 `json:"available_qty"`
	ShortageQty  float64 `json:"shortage_qty"`
	ProposalType string  `json:"proposal_type"`
	ProposalID   string  `json:"proposal_id"`
}

// MRPRunResult summarizes one completed planning run.
type MRPRunResult struct {
	RunID                string        `json:"run_id"`
	Plant                string        `json:"plant"`
	PlanningHorizonDays  int           `json:"planning_horizon_days"`
	OrdersConsidered     int           `json:"orders_considered"`
	MaterialsPlanned     int           `json:"materials_planned"`
	Shortages            []MRPShortage `json:"shortages"`
	PlannedOrdersCreated int           `json:"planned_orders_created"`
	RequisitionsCreated  int           `json:"requisitions_created"`
	Exceptions           []string      `json:"exceptions"`
	StartedAt            time.Time     `json:"started_at"`
	FinishedAt           time.Time     `json:"finished_at"`
}

// ProcurementLine is one material row of the read-only forecast.
type ProcurementLine struct {
	MaterialID  string  `json:"material_id"`
	RequiredQty float64 `json:"required_qty"`
	OnHand      float64 `json:"on_hand"`
	Available   float64 `json:"available"`
	Shortage    float64 `json:"shortage"`
}

// MRPUseCase implements the planning run, the read-only forecast and
// planned order conversion.
type MRPUseCase struct {
	store     repository.Store
	publisher Publisher
	logger    *slog.Logger
	plant     string

	runCounter      metric.Int64Counter
	shortageCounter metric.Int64Counter
}

// NewMRPUseCase wires the planning engine. A nil publisher disables
// notifications, which is what the tests use.
func NewMRPUseCase(store repository.Store, publisher Publisher, logger *slog.Logger, meter metric.Meter, plant string) *MRPUseCase {
	uc := &MRPUseCase{store: store, publisher: publisher, logger: logger, plant: plant}
	if uc.publisher == nil {
		uc.publisher = noopPublisher{}
	}
	if uc.plant == "" {
		uc.plant = defaultPlant
	}
	if meter != nil {
		uc.runCounter, _ = meter.Int64Counter("mrp_runs_total")
		uc.shortageCounter, _ = meter.Int64Counter("mrp_shortages_total")
	}
	return uc
}

// Run executes one atomic MRP run: gather demand from open production
// orders in the horizon, explode BOMs, net against stock and generate
// planned orders or purchase requisitions per shortage. Either every
// proposal of the run is committed or none is.
func (uc *MRPUseCase) Run(ctx context.Context, req MRPRunRequest) (*MRPRunResult, error) {
	if req.PlanningHorizonDays <= 0 {
		req.PlanningHorizonDays = defaultPlanningHorizonDays
	}
	if req.Plant == "" {
		req.Plant = uc.plant
	}

	result := &MRPRunResult{
		RunID:               fmt.Sprintf("MRP%d", time.Now().UnixNano()),
		Plant:               req.Plant,
		PlanningHorizonDays: req.PlanningHorizonDays,
		Shortages:           []MRPShortage{},
		Exceptions:          []string{},
		StartedAt:           time.Now().UTC(),
	}
	horizonEnd := result.StartedAt.Add(time.Duration(req.PlanningHorizonDays) * 24 * time.Hour)

	err := uc.store.InTx(ctx, func(s repository.Store) error {
		orders, err := s.Orders().ListOpenWithinHorizon(ctx, horizonEnd, req.Plant)
		if err != nil {
			return fmt.Errorf("listing open orders: %w", err)
		}
		result.OrdersConsidered = len(orders)

		exploder := NewBOMExploder(s.BOMs())
		demand := map[string]float64{}
		for _, order := range orders {
			demand[order.MaterialID] += order.Quantity
			if err := exploder.Explode(ctx, order.MaterialID, order.Quantity, demand); err != nil {
				// One bad BOM tree must not sink the whole run.
				result.Exceptions = append(result.Exceptions,
					fmt.Sprintf("order %s: %v", order.OrderID, err))
				uc.logger.Warn("BOM explosion failed", "order_id", order.OrderID, "error", err)
			}
		}

		if len(req.MaterialIDs) > 0 {
			keep := map[string]bool{}
			for _, id := range req.MaterialIDs {
				keep[id] = true
			}
			for id := range demand {
				if !keep[id] {
					delete(demand, id)
				}
			}
		}

		materialIDs := make([]string, 0, len(demand))
		for id := range demand {
			materialIDs = append(materialIDs, id)
		}
		sort.Strings(materialIDs)

		for _, materialID := range materialIDs {
			shortage, err := uc.planMaterial(ctx, s, result, materialID, demand[materialID], horizonEnd)
			if err != nil {
				return err
			}
			if shortage != nil {
				result.Shortages = append(result.Shortages, *shortage)
			}
		}
		result.MaterialsPlanned = len(materialIDs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mrp run %s: %w", result.RunID, err)
	}

	result.FinishedAt = time.Now().UTC()
	if uc.runCounter != nil {
		uc.runCounter.Add(ctx, 1)
	}
	if uc.shortageCounter != nil {
		uc.shortageCounter.Add(ctx, int64(len(result.Shortages)))
	}
	uc.logger.Info("mrp run completed",
		"run_id", result.RunID,
		"orders", result.OrdersConsidered,
		"shortages", len(result.Shortages),
		"planned_orders", result.PlannedOrdersCreated,
		"requisitions", result.RequisitionsCreated)

	uc.publisher.Publish(notify.NewEvent(notify.EventMRPRunCompleted, map[string]any{
		"run_id":                 result.RunID,
		"plant":                  result.Plant,
		"shortages":              len(result.Shortages),
		"planned_orders_created": result.PlannedOrdersCreated,
		"requisitions_created":   result.RequisitionsCreated,
	}))
	return result, nil
}

// planMaterial nets one material's demand against stock and generates a
// supply proposal when short. Materials without a balance row count as
// zero on hand.
func (uc *MRPUseCase) planMaterial(ctx context.Context, s repository.Store, result *MRPRunResult, materialID string, required float64, horizonEnd time.Time) (*MRPShortage, error) {
	available := 0.0
	stock, err := s.Stocks().GetForUpdate(ctx, materialID, result.Plant)
	switch {
	case err == nil:
		available = stock.Available()
	case entities.KindOf(err) == entities.KindNotFound:
	default:
		return nil, fmt.Errorf("reading stock for %s: %w", materialID, err)
	}

	shortageQty := required - available
	if shortageQty <= 0 {
		return nil, nil
	}

	material, err := s.Materials().Get(ctx, materialID)
	if err != nil {
		if entities.KindOf(err) == entities.KindNotFound {
			result.Exceptions = append(result.Exceptions,
				fmt.Sprintf("material %s: demand without master data, no proposal generated", materialID))
			return nil, nil
		}
		return nil, fmt.Errorf("reading material %s: %w", materialID, err)
	}

	shortage := &MRPShortage{
		MaterialID:   materialID,
		RequiredQty:  required,
		AvailableQty: available,
		ShortageQty:  shortageQty,
	}

	switch material.Type {
	case entities.MaterialTypeFinished, entities.MaterialTypeSemiFinished:
		po := &entities.PlannedOrder{
			PlannedOrderID:  entities.NewID(plannedOrderIDPrefix),
			MaterialID:      materialID,
			Quantity:        shortageQty,
			DueDate:         horizonEnd,
			StartDate:       horizonEnd.Add(-plannedOrderLeadTime),
			Plant:           result.Plant,
			MRPController:   defaultMRPControllerKey,
			OrderType:       plannedOrderType,
			Status:          entities.PlannedOrderPlanned,
			CreatedByMRPRun: result.RunID,
			CreatedAt:       time.Now().UTC(),
		}
		if err := s.Planning().CreatePlannedOrder(ctx, po); err != nil {
			return nil, fmt.Errorf("creating planned order for %s: %w", materialID, err)
		}
		shortage.ProposalType = "PLANNED_ORDER"
		shortage.ProposalID = po.PlannedOrderID
		result.PlannedOrdersCreated++
	case entities.MaterialTypeRaw:
		pr := &entities.PurchaseRequisition{
			PRNumber:        entities.NewID(requisitionIDPrefix),
			MaterialID:      materialID,
			Quantity:        shortageQty,
			DeliveryDate:    horizonEnd.Add(-requisitionDeliveryGap),
			Plant:           result.Plant,
			PurchasingGroup: defaultPurchasingGroup,
			Status:          entities.RequisitionOpen,
			CreatedByMRPRun: result.RunID,
			CreatedAt:       time.Now().UTC(),
		}
		if err := s.Planning().CreatePurchaseRequisition(ctx, pr); err != nil {
			return nil, fmt.Errorf("creating requisition for %s: %w", materialID, err)
		}
		shortage.ProposalType = "PURCHASE_REQUISITION"
		shortage.ProposalID = pr.PRNumber
		result.RequisitionsCreated++
	default:
		shortage.ProposalType = "NONE"
		result.Exceptions = append(result.Exceptions,
			fmt.Sprintf("material %s: no procurement proposal for type %s", materialID, material.Type))
	}
	return shortage, nil
}

// Forecast computes the same demand picture as Run without writing
// anything: no locks, no proposals, no events.
func (uc *MRPUseCase) Forecast(ctx context.Context, req MRPRunRequest) ([]ProcurementLine, error) {
	if req.PlanningHorizonDays <= 0 {
		req.PlanningHorizonDays = defaultPlanningHorizonDays
	}
	if req.Plant == "" {
		req.Plant = uc.plant
	}
	horizonEnd := time.Now().UTC().Add(time.Duration(req.PlanningHorizonDays) * 24 * time.Hour)

	orders, err := uc.store.Orders().ListOpenWithinHorizon(ctx, horizonEnd, req.Plant)
	if err != nil {
		return nil, fmt.Errorf("listing open orders: %w", err)
	}

	exploder := NewBOMExploder(uc.store.BOMs())
	demand := map[string]float64{}
	for _, order := range orders {
		demand[order.MaterialID] += order.Quantity
		if err := exploder.Explode(ctx, order.MaterialID, order.Quantity, demand); err != nil {
			uc.logger.Warn("BOM explosion failed", "order_id", order.OrderID, "error", err)
		}
	}

	materialIDs := make([]string, 0, len(demand))
	for id := range demand {
		materialIDs = append(materialIDs, id)
	}
	sort.Strings(materialIDs)

	lines := make([]ProcurementLine, 0, len(materialIDs))
	for _, materialID := range materialIDs {
		onHand := 0.0
		available := 0.0
		stock, err := uc.store.Stocks().Get(ctx, materialID, req.Plant)
		switch {
		case err == nil:
			onHand = stock.OnHand
			available = stock.Available()
		case entities.KindOf(err) == entities.KindNotFound:
		default:
			return nil, fmt.Errorf("reading stock for %s: %w", materialID, err)
		}
		line := ProcurementLine{MaterialID: materialID, RequiredQty: demand[materialID], OnHand: onHand, Available: available}
		// Net against available, not on hand: safety stock is reserved.
		if shortage := line.RequiredQty - available; shortage > 0 {
			line.Shortage = shortage
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ListPlannedOrders returns planned orders matching the filter.
func (uc *MRPUseCase) ListPlannedOrders(ctx context.Context, filter repository.PlanningFilter) ([]entities.PlannedOrder, error) {
	return uc.store.Planning().ListPlannedOrders(ctx, filter)
}

// ListPurchaseRequisitions returns purchase requisitions matching the filter.
func (uc *MRPUseCase) ListPurchaseRequisitions(ctx context.Context, filter repository.PlanningFilter) ([]entities.PurchaseRequisition, error) {
	return uc.store.Planning().ListPurchaseRequisitions(ctx, filter)
}

// ConvertPlannedOrder turns a PLANNED planned order into a production
// order and flips it to CONVERTED, in one transaction. Converting twice
// is a conflict.
func (uc *MRPUseCase) ConvertPlannedOrder(ctx context.Context, plannedOrderID string) (*entities.ProductionOrder, error) {
	var order *entities.ProductionOrder
	err := uc.store.InTx(ctx, func(s repository.Store) error {
		po, err := s.Planning().GetPlannedOrderForUpdate(ctx, plannedOrderID)
		if err != nil {
			return err
		}
		if po.Status != entities.PlannedOrderPlanned {
			return entities.ConflictError("planned order %s is already %s", po.PlannedOrderID, po.Status)
		}

		order = entities.NewProductionOrder(po.MaterialID, po.Quantity, po.DueDate, entities.PriorityMedium, po.Plant, "")
		order.Description = fmt.Sprintf("Converted from planned order %s", po.PlannedOrderID)
		start := po.StartDate
		order.PlannedStartDate = &start
		due := po.DueDate
		order.PlannedEndDate = &due

		if err := s.Orders().Create(ctx, order); err != nil {
			return err
		}
		return s.Planning().UpdatePlannedOrderStatus(ctx, po.PlannedOrderID, entities.PlannedOrderConverted)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("planned order converted", "planned_order_id", plannedOrderID, "order_id", order.OrderID)
	uc.publisher.Publish(notify.NewEvent(notify.EventPlannedConverted, map[string]any{
		"planned_order_id": plannedOrderID,
		"order_id":         order.OrderID,
		"material_id":      order.MaterialID,
		"quantity":         order.Quantity,
	}))
	return order, nil
}
