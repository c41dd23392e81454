package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/matheusmosca/mrp-backend/internal/entities"
)

// confirmFixture seeds a released order with a two-operation routing
// and a single-level BOM.
type confirmFixture struct {
	store *memStore
	uc    *ConfirmationUseCase
	order *entities.ProductionOrder
}

func newConfirmFixture(t *testing.T) *confirmFixture {
	t.Helper()
	ctx := context.Background()
	s := newMemStore()
	seedMaterial(s, "FG-100", entities.MaterialTypeFinished)
	seedMaterial(s, "RM-200", entities.MaterialTypeRaw)
	seedStock(s, "RM-200", 1000)
	seedBOM(s, "BOM-FG", "FG-100", map[string]float64{"RM-200": 2})

	_ = s.WorkCenters().Create(ctx, &entities.WorkCenter{
		WorkCenterID: "WC-10", Name: "Assembly", Status: entities.WorkCenterStatusActive, Plant: "1000",
	})
	_ = s.Routings().Create(ctx, &entities.Routing{
		RoutingID: "RT-100", MaterialID: "FG-100", Status: entities.RoutingStatusActive, Plant: "1000",
	})
	_ = s.Routings().CreateOperation(ctx, &entities.Operation{
		OperationID: "0010", RoutingID: "RT-100", WorkCenterID: "WC-10",
		Sequence: 10, SetupTime: 10, MachineTime: 20, LaborTime: 15,
		Status: entities.OperationStatusActive,
	})
	_ = s.Routings().CreateOperation(ctx, &entities.Operation{
		OperationID: "0020", RoutingID: "RT-100", WorkCenterID: "WC-10",
		Sequence: 20, SetupTime: 5, MachineTime: 30, LaborTime: 10,
		Status: entities.OperationStatusActive,
	})

	orderUC := NewOrderUseCase(s, nil, testLogger(), nil, DefaultLocations(), "")
	order, err := orderUC.Create(ctx, CreateOrderRequest{
		MaterialID: "FG-100", Quantity: 100, DueDate: time.Now().Add(48 * time.Hour), RoutingID: "RT-100",
	})
	assert.NoError(t, err)
	_, err = orderUC.Release(ctx, order.OrderID)
	assert.NoError(t, err)

	return &confirmFixture{
		store: s,
		uc:    NewConfirmationUseCase(s, nil, testLogger(), nil, DefaultLocations()),
		order: order,
	}
}

func (f *confirmFixture) request(operationID, confType string, yield float64) ConfirmationRequest {
	start := time.Now().Add(-2 * time.Hour)
	return ConfirmationRequest{
		OrderID:           f.order.OrderID,
		OperationID:       operationID,
		WorkCenterID:      "WC-10",
		YieldQty:          yield,
		SetupTimeActual:   12,
		MachineTimeActual: 25,
		LaborTimeActual:   15,
		StartTime:         start,
		EndTime:           start.Add(time.Hour),
		ConfirmationType:  confType,
		ConfirmedBy:       "operator1",
	}
}

func TestConfirmationCalculatesVariances(t *testing.T) {
	f := newConfirmFixture(t)

	result, err := f.uc.Create(context.Background(), f.request("0010", "PARTIAL", 50))

	assert.NoError(t, err)
	// Operation 0010 plans setup 10, machine 20, labor 15.
	assert.Equal(t, 2.0, result.Variances.SetupVariance)
	assert.Equal(t, 5.0, result.Variances.MachineVariance)
	assert.Equal(t, 0.0, result.Variances.LaborVariance)
	assert.Equal(t, 7.0, result.Variances.TotalVariance)
	assert.Equal(t, 20.0, result.Variances.SetupVariancePercent)
	assert.Equal(t, entities.OrderStatusInProgress, result.OrderStatus)
}

func TestConfirmationRejectsUnknownOperation(t *testing.T) {
	f := newConfirmFixture(t)

	_, err := f.uc.Create(context.Background(), f.request("9999", "PARTIAL", 10))

	assert.Error(t, err)
	assert.Equal(t, entities.KindNotFound, entities.KindOf(err))
}

func TestConfirmationRejectsZeroYield(t *testing.T) {
	f := newConfirmFixture(t)

	_, err := f.uc.Create(context.Background(), f.request("0010", "PARTIAL", 0))

	assert.Error(t, err)
	assert.Equal(t, entities.KindValidation, entities.KindOf(err))
}

func TestConfirmationRejectsUnreleasedOrder(t *testing.T) {
	f := newConfirmFixture(t)
	order, _ := f.store.Orders().Get(context.Background(), f.order.OrderID)
	order.Status = entities.OrderStatusCancelled
	_ = f.store.Orders().Update(context.Background(), order)

	_, err := f.uc.Create(context.Background(), f.request("0010", "PARTIAL", 10))

	assert.Error(t, err)
	assert.Equal(t, entities.KindConflict, entities.KindOf(err))
}

func TestFinalConfirmationsOnAllOperationsCompleteOrder(t *testing.T) {
	f := newConfirmFixture(t)
	ctx := context.Background()

	first, err := f.uc.Create(ctx, f.request("0010", "FINAL", 100))
	assert.NoError(t, err)
	assert.Equal(t, entities.OrderStatusInProgress, first.OrderStatus)
	assert.Equal(t, 50, first.OrderProgress)

	second, err := f.uc.Create(ctx, f.request("0020", "FINAL", 100))
	assert.NoError(t, err)
	assert.Equal(t, entities.OrderStatusCompleted, second.OrderStatus)
	assert.Equal(t, 100, second.OrderProgress)

	order, _ := f.store.Orders().Get(ctx, f.order.OrderID)
	assert.NotNil(t, order.ActualStartDate)
	assert.NotNil(t, order.ActualEndDate)
}

func TestConfirmationDerivesMovements(t *testing.T) {
	f := newConfirmFixture(t)

	// FINAL with yield 100 on a BOM needing 2x RM-200 per unit: one
	// receipt of 100 FG and one backflush issue of 200 RM.
	_, err := f.uc.Create(context.Background(), f.request("0010", "FINAL", 100))
	assert.NoError(t, err)

	var issueQty, receiptQty float64
	for _, mv := range f.store.movements {
		switch mv.MovementType {
		case entities.MovementIssue:
			issueQty += mv.Quantity
		case entities.MovementReceipt:
			receiptQty += mv.Quantity
		}
	}
	assert.Equal(t, 200.0, issueQty)
	assert.Equal(t, 100.0, receiptQty)

	rmStock, _ := f.store.Stocks().Get(context.Background(), "RM-200", "1000")
	assert.Equal(t, 800.0, rmStock.OnHand)
}

func TestConfirmationScrapPostsAdjustment(t *testing.T) {
	f := newConfirmFixture(t)

	req := f.request("0010", "PARTIAL", 40)
	req.ScrapQty = 5
	_, err := f.uc.Create(context.Background(), req)
	assert.NoError(t, err)

	var adjustments []float64
	for _, mv := range f.store.movements {
		if mv.MovementType == entities.MovementAdjustment {
			adjustments = append(adjustments, mv.Quantity)
		}
	}
	assert.Equal(t, []float64{-5}, adjustments)
}

func TestBatchConfirmationValidatesEveryEntry(t *testing.T) {
	f := newConfirmFixture(t)

	_, err := f.uc.CreateBatch(context.Background(), []ConfirmationRequest{
		f.request("0010", "PARTIAL", 10),
		f.request("9999", "PARTIAL", 10),
	})

	assert.Error(t, err)
	assert.Equal(t, entities.KindNotFound, entities.KindOf(err))
}

func TestBatchConfirmationPostsAll(t *testing.T) {
	f := newConfirmFixture(t)

	results, err := f.uc.CreateBatch(context.Background(), []ConfirmationRequest{
		f.request("0010", "FINAL", 100),
		f.request("0020", "FINAL", 100),
	})

	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, entities.OrderStatusCompleted, results[1].OrderStatus)
}

func TestOrderDetailAggregates(t *testing.T) {
	f := newConfirmFixture(t)
	ctx := context.Background()

	req := f.request("0010", "PARTIAL", 60)
	req.ScrapQty = 20
	_, err := f.uc.Create(ctx, req)
	assert.NoError(t, err)

	detail, err := f.uc.OrderDetail(ctx, f.order.OrderID)
	assert.NoError(t, err)
	assert.Equal(t, 60.0, detail.TotalYield)
	assert.Equal(t, 20.0, detail.TotalScrap)
	assert.Equal(t, 60.0, detail.YieldEfficiency)
	assert.Equal(t, 25.0, detail.ScrapRate)
	assert.Len(t, detail.Confirmations, 1)
}
