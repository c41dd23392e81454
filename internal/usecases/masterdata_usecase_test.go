package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/matheusmosca/mrp-backend/internal/entities"
	"github.com/matheusmosca/mrp-backend/internal/repository"
)

func newMasterUC(s *memStore) *MasterDataUseCase {
	return NewMasterDataUseCase(s, nil, testLogger(), "")
}

func TestCreateMaterialDerivesStatus(t *testing.T) {
	s := newMemStore()
	uc := newMasterUC(s)

	m, err := uc.CreateMaterial(context.Background(), CreateMaterialRequest{
		MaterialID: "RM-300", Description: "Steel rod", Type: "RAW",
		CurrentStock: 4, MinStock: 10, UnitOfMeasure: "EA",
	})

	assert.NoError(t, err)
	assert.Equal(t, entities.StockStatusCritical, m.Status)
}

func TestCreateMaterialDuplicateConflicts(t *testing.T) {
	s := newMemStore()
	uc := newMasterUC(s)
	_, err := uc.CreateMaterial(context.Background(), CreateMaterialRequest{
		MaterialID: "RM-300", Type: "RAW", UnitOfMeasure: "EA",
	})
	assert.NoError(t, err)

	_, err = uc.CreateMaterial(context.Background(), CreateMaterialRequest{
		MaterialID: "RM-300", Type: "RAW", UnitOfMeasure: "EA",
	})

	assert.Error(t, err)
	assert.Equal(t, entities.KindConflict, entities.KindOf(err))
}

func TestCreateMaterialRejectsUnknownType(t *testing.T) {
	s := newMemStore()
	uc := newMasterUC(s)

	_, err := uc.CreateMaterial(context.Background(), CreateMaterialRequest{
		MaterialID: "X", Type: "LIQUID",
	})

	assert.Error(t, err)
	assert.Equal(t, entities.KindValidation, entities.KindOf(err))
}

func TestCreateBOMRejectsCycle(t *testing.T) {
	s := newMemStore()
	seedMaterial(s, "MAT-A", entities.MaterialTypeFinished)
	seedMaterial(s, "MAT-B", entities.MaterialTypeSemiFinished)
	uc := newMasterUC(s)

	_, err := uc.CreateBOM(context.Background(), CreateBOMRequest{
		BOMID: "BOM-1", ParentMaterialID: "MAT-A", Version: "1",
		Items: []BOMItemRequest{{ComponentMaterialID: "MAT-B", Quantity: 2}},
	})
	assert.NoError(t, err)

	// B -> A closes the loop A -> B -> A.
	_, err = uc.CreateBOM(context.Background(), CreateBOMRequest{
		BOMID: "BOM-2", ParentMaterialID: "MAT-B", Version: "1",
		Items: []BOMItemRequest{{ComponentMaterialID: "MAT-A", Quantity: 1}},
	})

	assert.Error(t, err)
	assert.Equal(t, entities.KindValidation, entities.KindOf(err))
}

func TestCreateBOMRequiresKnownMaterials(t *testing.T) {
	s := newMemStore()
	seedMaterial(s, "MAT-A", entities.MaterialTypeFinished)
	uc := newMasterUC(s)

	_, err := uc.CreateBOM(context.Background(), CreateBOMRequest{
		BOMID: "BOM-1", ParentMaterialID: "MAT-A",
		Items: []BOMItemRequest{{ComponentMaterialID: "MISSING", Quantity: 2}},
	})

	assert.Error(t, err)
	assert.Equal(t, entities.KindNotFound, entities.KindOf(err))
}

func TestCreateRoutingWithOperations(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	seedMaterial(s, "FG-100", entities.MaterialTypeFinished)
	_ = s.WorkCenters().Create(ctx, &entities.WorkCenter{WorkCenterID: "WC-10", Plant: "1000"})
	uc := newMasterUC(s)

	view, err := uc.CreateRouting(ctx, CreateRoutingRequest{
		RoutingID: "RT-100", MaterialID: "FG-100", Version: "1",
		Operations: []OperationRequest{
			{OperationID: "0010", WorkCenterID: "WC-10", Sequence: 10, SetupTime: 10, MachineTime: 20, LaborTime: 5},
			{OperationID: "0020", WorkCenterID: "WC-10", Sequence: 20, MachineTime: 30},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, entities.RoutingStatusActive, view.Routing.Status)
	assert.Len(t, view.Operations, 2)

	got, err := uc.GetRouting(ctx, "RT-100")
	assert.NoError(t, err)
	assert.Equal(t, "0010", got.Operations[0].OperationID)
	assert.Equal(t, "0020", got.Operations[1].OperationID)
}

func TestCreateRoutingRejectsDuplicateOperation(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	seedMaterial(s, "FG-100", entities.MaterialTypeFinished)
	_ = s.WorkCenters().Create(ctx, &entities.WorkCenter{WorkCenterID: "WC-10", Plant: "1000"})
	uc := newMasterUC(s)

	_, err := uc.CreateRouting(ctx, CreateRoutingRequest{
		RoutingID: "RT-100", MaterialID: "FG-100",
		Operations: []OperationRequest{
			{OperationID: "0010", WorkCenterID: "WC-10", Sequence: 10},
			{OperationID: "0010", WorkCenterID: "WC-10", Sequence: 20},
		},
	})

	assert.Error(t, err)
	assert.Equal(t, entities.KindConflict, entities.KindOf(err))
}

func TestDeleteRoutingBlockedByOrders(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	seedMaterial(s, "FG-100", entities.MaterialTypeFinished)
	_ = s.WorkCenters().Create(ctx, &entities.WorkCenter{WorkCenterID: "WC-10", Plant: "1000"})
	masterUC := newMasterUC(s)
	_, err := masterUC.CreateRouting(ctx, CreateRoutingRequest{
		RoutingID: "RT-100", MaterialID: "FG-100",
		Operations: []OperationRequest{{OperationID: "0010", WorkCenterID: "WC-10", Sequence: 10}},
	})
	assert.NoError(t, err)

	orderUC := NewOrderUseCase(s, nil, testLogger(), nil, DefaultLocations(), "")
	_, err = orderUC.Create(ctx, CreateOrderRequest{
		MaterialID: "FG-100", Quantity: 10, DueDate: time.Now().Add(24 * time.Hour), RoutingID: "RT-100",
	})
	assert.NoError(t, err)

	err = masterUC.DeleteRouting(ctx, "RT-100")
	assert.Error(t, err)
	assert.Equal(t, entities.KindConflict, entities.KindOf(err))

	routings, _ := masterUC.ListRoutings(ctx, repository.RoutingFilter{})
	assert.Len(t, routings, 1)
}

func TestAddOperationToRouting(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	seedMaterial(s, "FG-100", entities.MaterialTypeFinished)
	_ = s.WorkCenters().Create(ctx, &entities.WorkCenter{WorkCenterID: "WC-10", Plant: "1000"})
	uc := newMasterUC(s)
	_, err := uc.CreateRouting(ctx, CreateRoutingRequest{RoutingID: "RT-100", MaterialID: "FG-100"})
	assert.NoError(t, err)

	op, err := uc.AddOperation(ctx, "RT-100", OperationRequest{
		OperationID: "0010", WorkCenterID: "WC-10", Sequence: 10, MachineTime: 12,
	})
	assert.NoError(t, err)
	assert.Equal(t, entities.OperationStatusActive, op.Status)

	// Same operation number again conflicts.
	_, err = uc.AddOperation(ctx, "RT-100", OperationRequest{
		OperationID: "0010", WorkCenterID: "WC-10", Sequence: 30,
	})
	assert.Error(t, err)
	assert.Equal(t, entities.KindConflict, entities.KindOf(err))
}

func TestExplodeBOMEndpointValidatesQuantity(t *testing.T) {
	s := newMemStore()
	uc := newMasterUC(s)

	_, err := uc.ExplodeBOM(context.Background(), "MAT-A", 0)

	assert.Error(t, err)
	assert.Equal(t, entities.KindValidation, entities.KindOf(err))
}
