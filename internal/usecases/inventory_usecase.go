package usecases

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/matheusmosca/mrp-backend/internal/entities"
	"github.com/matheusmosca/mrp-backend/internal/notify"
	"github.com/matheusmosca/mrp-backend/internal/repository"
)

// MovementRequest carries one manual goods movement against an order.
type MovementRequest struct {
	OrderID         string  `json:"order_id"`
	MaterialID      string  `json:"material_id"`
	Quantity        float64 `json:"quantity"`
	Plant           string  `json:"plant"`
	StorageLocation string  `json:"storage_location"`
	Reference       string  `json:"reference"`
}

// ProductionMetrics is the analytics snapshot over production orders.
type ProductionMetrics struct {
	TotalOrders     int       `json:"total_orders"`
	ActiveOrders    int       `json:"active_orders"`
	CompletedOrders int       `json:"completed_orders"`
	CompletionRate  float64   `json:"completion_rate_percent"`
	SubscriberCount int       `json:"subscriber_count"`
	SnapshotTakenAt time.Time `json:"snapshot_taken_at"`
}

// SubscriberCounter exposes the live subscriber count for analytics.
type SubscriberCounter interface {
	SubscriberCount() int
}

// InventoryUseCase implements manual goods movements and the
// production analytics snapshot.
type InventoryUseCase struct {
	store     repository.Store
	publisher Publisher
	logger    *slog.Logger
	locations Locations
	subsCount SubscriberCounter

	movementCounter metric.Int64Counter
}

// NewInventoryUseCase wires the inventory logic. subsCount may be nil.
func NewInventoryUseCase(store repository.Store, publisher Publisher, logger *slog.Logger, meter metric.Meter, locations Locations, subsCount SubscriberCounter) *InventoryUseCase {
	uc := &InventoryUseCase{store: store, publisher: publisher, logger: logger, locations: locations, subsCount: subsCount}
	if uc.publisher == nil {
		uc.publisher = noopPublisher{}
	}
	if uc.locations == (Locations{}) {
		uc.locations = DefaultLocations()
	}
	if meter != nil {
		uc.movementCounter, _ = meter.Int64Counter("goods_movements_total")
	}
	return uc
}

// GoodsIssue consumes material against an order. Insufficient stock
// rejects the movement before anything is written.
func (uc *InventoryUseCase) GoodsIssue(ctx context.Context, req MovementRequest) (*entities.GoodsMovement, error) {
	mv, err := uc.postManual(ctx, entities.MovementIssue, req, uc.locations.RawMaterials, false)
	if err != nil {
		return nil, err
	}
	uc.publisher.Publish(notify.NewEvent(notify.EventGoodsIssue, map[string]any{
		"movement_id": mv.ID,
		"material_id": mv.MaterialID,
		"order_id":    mv.OrderID,
		"quantity":    mv.Quantity,
	}))
	return mv, nil
}

// GoodsReceipt books produced material into stock. A receipt covering
// the order quantity completes the order.
func (uc *InventoryUseCase) GoodsReceipt(ctx context.Context, req MovementRequest) (*entities.GoodsMovement, error) {
	var mv *entities.GoodsMovement
	var completed bool
	err := uc.store.InTx(ctx, func(s repository.Store) error {
		order, err := s.Orders().GetForUpdate(ctx, req.OrderID)
		if err != nil {
			return err
		}
		materialID := req.MaterialID
		if materialID == "" {
			materialID = order.MaterialID
		}
		if req.Quantity <= 0 {
			return entities.ValidationError("quantity must be greater than 0")
		}

		location := req.StorageLocation
		if location == "" {
			location = uc.locations.FinishedGoods
		}
		mv = entities.NewGoodsMovement(entities.MovementReceipt, materialID, req.Quantity, order.Plant, location)
		mv.OrderID = order.OrderID
		mv.Reference = req.Reference
		if err := postMovement(ctx, s, mv, false); err != nil {
			return err
		}

		if req.Quantity >= order.Quantity && !order.Status.Terminal() {
			now := time.Now().UTC()
			order.Status = entities.OrderStatusCompleted
			order.Progress = 100
			order.ActualEndDate = &now
			order.UpdatedAt = now
			if err := s.Orders().Update(ctx, order); err != nil {
				return err
			}
			completed = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.movementCounter != nil {
		uc.movementCounter.Add(ctx, 1)
	}
	uc.logger.Info("goods receipt posted", "movement_id", mv.ID, "order_id", mv.OrderID, "quantity", mv.Quantity)
	uc.publisher.Publish(notify.NewEvent(notify.EventGoodsReceipt, map[string]any{
		"movement_id": mv.ID,
		"material_id": mv.MaterialID,
		"order_id":    mv.OrderID,
		"quantity":    mv.Quantity,
	}))
	if completed {
		uc.publisher.Publish(notify.NewEvent(notify.EventOrderCompleted, map[string]any{
			"order_id": mv.OrderID,
		}))
	}
	return mv, nil
}

func (uc *InventoryUseCase) postManual(ctx context.Context, mt entities.MovementType, req MovementRequest, defaultLocation string, allowNegative bool) (*entities.GoodsMovement, error) {
	if req.Quantity <= 0 {
		return nil, entities.ValidationError("quantity must be greater than 0")
	}

	var mv *entities.GoodsMovement
	err := uc.store.InTx(ctx, func(s repository.Store) error {
		order, err := s.Orders().Get(ctx, req.OrderID)
		if err != nil {
			return err
		}
		plant := req.Plant
		if plant == "" {
			plant = order.Plant
		}
		location := req.StorageLocation
		if location == "" {
			location = defaultLocation
		}
		mv = entities.NewGoodsMovement(mt, req.MaterialID, req.Quantity, plant, location)
		mv.OrderID = order.OrderID
		mv.Reference = req.Reference
		return postMovement(ctx, s, mv, allowNegative)
	})
	if err != nil {
		return nil, err
	}

	if uc.movementCounter != nil {
		uc.movementCounter.Add(ctx, 1)
	}
	uc.logger.Info("goods movement posted", "movement_id", mv.ID, "type", mv.MovementType, "quantity", mv.Quantity)
	return mv, nil
}

// ListMovements returns ledger entries matching the filter.
func (uc *InventoryUseCase) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]entities.GoodsMovement, error) {
	return uc.store.Movements().List(ctx, filter)
}

// Metrics computes the production analytics snapshot.
func (uc *InventoryUseCase) Metrics(ctx context.Context) (*ProductionMetrics, error) {
	total, err := uc.store.Orders().CountAll(ctx)
	if err != nil {
		return nil, err
	}
	active, err := uc.store.Orders().CountByStatus(ctx, []entities.OrderStatus{
		entities.OrderStatusCreated, entities.OrderStatusReleased, entities.OrderStatusInProgress, entities.OrderStatusDelayed,
	})
	if err != nil {
		return nil, err
	}
	completed, err := uc.store.Orders().CountByStatus(ctx, []entities.OrderStatus{entities.OrderStatusCompleted})
	if err != nil {
		return nil, err
	}

	m := &ProductionMetrics{
		TotalOrders:     total,
		ActiveOrders:    active,
		CompletedOrders: completed,
		SnapshotTakenAt: time.Now().UTC(),
	}
	if total > 0 {
		m.CompletionRate = float64(completed) / float64(total) * 100
	}
	if uc.subsCount != nil {
		m.SubscriberCount = uc.subsCount.SubscriberCount()
	}
	return m, nil
}
