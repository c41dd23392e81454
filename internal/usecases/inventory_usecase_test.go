package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/matheusmosca/mrp-backend/internal/entities"
	"github.com/matheusmosca/mrp-backend/internal/repository"
)

func newInventoryFixture(t *testing.T) (*memStore, *InventoryUseCase, *entities.ProductionOrder) {
	t.Helper()
	s := newMemStore()
	seedMaterial(s, "FG-100", entities.MaterialTypeFinished)
	seedMaterial(s, "RM-200", entities.MaterialTypeRaw)
	seedStock(s, "RM-200", 100)

	orderUC := NewOrderUseCase(s, nil, testLogger(), nil, DefaultLocations(), "")
	order, err := orderUC.Create(context.Background(), CreateOrderRequest{
		MaterialID: "FG-100", Quantity: 20, DueDate: time.Now().Add(24 * time.Hour),
	})
	assert.NoError(t, err)

	return s, NewInventoryUseCase(s, nil, testLogger(), nil, DefaultLocations(), nil), order
}

func TestGoodsIssueDecrementsStock(t *testing.T) {
	s, uc, order := newInventoryFixture(t)

	mv, err := uc.GoodsIssue(context.Background(), MovementRequest{
		OrderID: order.OrderID, MaterialID: "RM-200", Quantity: 30,
	})

	assert.NoError(t, err)
	assert.Equal(t, entities.MovementIssue, mv.MovementType)
	assert.Contains(t, mv.ID, "GI")

	stock, _ := s.Stocks().Get(context.Background(), "RM-200", "1000")
	assert.Equal(t, 70.0, stock.OnHand)

	material, _ := s.Materials().Get(context.Background(), "RM-200")
	assert.Equal(t, -30.0, material.CurrentStock)
	assert.NotNil(t, material.LastMovementDate)
}

func TestGoodsIssueRejectsInsufficientStock(t *testing.T) {
	s, uc, order := newInventoryFixture(t)

	_, err := uc.GoodsIssue(context.Background(), MovementRequest{
		OrderID: order.OrderID, MaterialID: "RM-200", Quantity: 500,
	})

	assert.Error(t, err)
	assert.Equal(t, entities.KindValidation, entities.KindOf(err))

	stock, _ := s.Stocks().Get(context.Background(), "RM-200", "1000")
	assert.Equal(t, 100.0, stock.OnHand)
	assert.Empty(t, s.movements)
}

func TestGoodsIssueUnknownOrder(t *testing.T) {
	_, uc, _ := newInventoryFixture(t)

	_, err := uc.GoodsIssue(context.Background(), MovementRequest{
		OrderID: "PO-MISSING", MaterialID: "RM-200", Quantity: 1,
	})

	assert.Error(t, err)
	assert.Equal(t, entities.KindNotFound, entities.KindOf(err))
}

func TestGoodsReceiptCreatesStockLazily(t *testing.T) {
	s, uc, order := newInventoryFixture(t)

	mv, err := uc.GoodsReceipt(context.Background(), MovementRequest{
		OrderID: order.OrderID, Quantity: 5,
	})

	assert.NoError(t, err)
	assert.Equal(t, "FG-100", mv.MaterialID)
	assert.Contains(t, mv.ID, "GR")

	stock, err := s.Stocks().Get(context.Background(), "FG-100", "1000")
	assert.NoError(t, err)
	assert.Equal(t, 5.0, stock.OnHand)

	// 5 of 20 produced: order stays open.
	o, _ := s.Orders().Get(context.Background(), order.OrderID)
	assert.NotEqual(t, entities.OrderStatusCompleted, o.Status)
}

func TestGoodsReceiptFullQuantityCompletesOrder(t *testing.T) {
	s, uc, order := newInventoryFixture(t)

	_, err := uc.GoodsReceipt(context.Background(), MovementRequest{
		OrderID: order.OrderID, Quantity: 20,
	})

	assert.NoError(t, err)
	o, _ := s.Orders().Get(context.Background(), order.OrderID)
	assert.Equal(t, entities.OrderStatusCompleted, o.Status)
	assert.Equal(t, 100, o.Progress)
}

func TestListMovementsFilters(t *testing.T) {
	_, uc, order := newInventoryFixture(t)
	_, _ = uc.GoodsIssue(context.Background(), MovementRequest{
		OrderID: order.OrderID, MaterialID: "RM-200", Quantity: 10,
	})
	_, _ = uc.GoodsReceipt(context.Background(), MovementRequest{
		OrderID: order.OrderID, Quantity: 5,
	})

	issues, err := uc.ListMovements(context.Background(), repository.MovementFilter{MovementType: entities.MovementIssue})
	assert.NoError(t, err)
	assert.Len(t, issues, 1)

	all, err := uc.ListMovements(context.Background(), repository.MovementFilter{OrderID: order.OrderID})
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMetricsSnapshot(t *testing.T) {
	s, uc, order := newInventoryFixture(t)
	_, err := uc.GoodsReceipt(context.Background(), MovementRequest{OrderID: order.OrderID, Quantity: 20})
	assert.NoError(t, err)

	orderUC := NewOrderUseCase(s, nil, testLogger(), nil, DefaultLocations(), "")
	_, err = orderUC.Create(context.Background(), CreateOrderRequest{
		MaterialID: "FG-100", Quantity: 10, DueDate: time.Now().Add(24 * time.Hour),
	})
	assert.NoError(t, err)

	m, err := uc.Metrics(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, m.TotalOrders)
	assert.Equal(t, 1, m.ActiveOrders)
	assert.Equal(t, 1, m.CompletedOrders)
	assert.Equal(t, 50.0, m.CompletionRate)
}
