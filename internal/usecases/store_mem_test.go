package usecases

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/matheusmosca/mrp-backend/internal/entities"
	"github.com/matheusmosca/mrp-backend/internal/repository"
)

// memStore is an in-memory repository.Store used by the usecase tests.
// InTx runs the callback against the same maps; tests only exercise
// happy paths or rejections raised before any write.
type memStore struct {
	materials     map[string]*entities.Material
	workCenters   map[string]*entities.WorkCenter
	stocks        map[string]*entities.Stock
	bomHeaders    map[string]*entities.BOMHeader
	bomItems      map[string][]*entities.BOMItem
	routings      map[string]*entities.Routing
	operations    map[string][]*entities.Operation
	orders        map[string]*entities.ProductionOrder
	confirmations map[string]*entities.OperationConfirmation
	movements     []*entities.GoodsMovement
	plannedOrders map[string]*entities.PlannedOrder
	requisitions  map[string]*entities.PurchaseRequisition
	history       []*entities.OrderChangeHistory
}

func newMemStore() *memStore {
	return &memStore{
		materials:     map[string]*entities.Material{},
		workCenters:   map[string]*entities.WorkCenter{},
		stocks:        map[string]*entities.Stock{},
		bomHeaders:    map[string]*entities.BOMHeader{},
		bomItems:      map[string][]*entities.BOMItem{},
		routings:      map[string]*entities.Routing{},
		operations:    map[string][]*entities.Operation{},
		orders:        map[string]*entities.ProductionOrder{},
		confirmations: map[string]*entities.OperationConfirmation{},
		plannedOrders: map[string]*entities.PlannedOrder{},
		requisitions:  map[string]*entities.PurchaseRequisition{},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (m *memStore) InTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(m)
}

func (m *memStore) Materials() repository.MaterialRepository         { return (*memMaterials)(m) }
func (m *memStore) WorkCenters() repository.WorkCenterRepository     { return (*memWorkCenters)(m) }
func (m *memStore) Stocks() repository.StockRepository               { return (*memStocks)(m) }
func (m *memStore) BOMs() repository.BOMRepository                   { return (*memBOMs)(m) }
func (m *memStore) Routings() repository.RoutingRepository           { return (*memRoutings)(m) }
func (m *memStore) Orders() repository.OrderRepository               { return (*memOrders)(m) }
func (m *memStore) Confirmations() repository.ConfirmationRepository { return (*memConfirmations)(m) }
func (m *memStore) Movements() repository.MovementRepository         { return (*memMovements)(m) }
func (m *memStore) Planning() repository.PlanningRepository          { return (*memPlanning)(m) }
func (m *memStore) History() repository.ChangeHistoryRepository      { return (*memHistory)(m) }

type memMaterials memStore

func (m *memMaterials) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.materials[id]
	return ok, nil
}

func (m *memMaterials) Create(_ context.Context, mat *entities.Material) error {
	cp := *mat
	m.materials[mat.MaterialID] = &cp
	return nil
}

func (m *memMaterials) Get(_ context.Context, id string) (*entities.Material, error) {
	mat, ok := m.materials[id]
	if !ok {
		return nil, entities.NotFoundError("material %s not found", id)
	}
	cp := *mat
	return &cp, nil
}

func (m *memMaterials) GetForUpdate(ctx context.Context, id string) (*entities.Material, error) {
	return m.Get(ctx, id)
}

func (m *memMaterials) Update(_ context.Context, mat *entities.Material) error {
	if _, ok := m.materials[mat.MaterialID]; !ok {
		return entities.NotFoundError("material %s not found", mat.MaterialID)
	}
	cp := *mat
	m.materials[mat.MaterialID] = &cp
	return nil
}

func (m *memMaterials) List(_ context.Context, filter repository.MaterialFilter) ([]entities.Material, error) {
	var out []entities.Material
	for _, mat := range m.materials {
		if filter.Type != "" && mat.Type != filter.Type {
			continue
		}
		if filter.Plant != "" && mat.Plant != filter.Plant {
			continue
		}
		out = append(out, *mat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaterialID < out[j].MaterialID })
	return out, nil
}

type memWorkCenters memStore

func (m *memWorkCenters) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.workCenters[id]
	return ok, nil
}

func (m *memWorkCenters) Create(_ context.Context, wc *entities.WorkCenter) error {
	cp := *wc
	m.workCenters[wc.WorkCenterID] = &cp
	return nil
}

func (m *memWorkCenters) Get(_ context.Context, id string) (*entities.WorkCenter, error) {
	wc, ok := m.workCenters[id]
	if !ok {
		return nil, entities.NotFoundError("work center %s not found", id)
	}
	cp := *wc
	return &cp, nil
}

func (m *memWorkCenters) List(_ context.Context, plant string) ([]entities.WorkCenter, error) {
	var out []entities.WorkCenter
	for _, wc := range m.workCenters {
		if plant != "" && wc.Plant != plant {
			continue
		}
		out = append(out, *wc)
	}
	return out, nil
}

type memStocks memStore

func stockKey(materialID, plant string) string { return materialID + "|" + plant }

func (m *memStocks) Get(_ context.Context, materialID, plant string) (*entities.Stock, error) {
	st, ok := m.stocks[stockKey(materialID, plant)]
	if !ok {
		return nil, entities.NotFoundError("no stock for material %s in plant %s", materialID, plant)
	}
	cp := *st
	return &cp, nil
}

func (m *memStocks) GetForUpdate(ctx context.Context, materialID, plant string) (*entities.Stock, error) {
	return m.Get(ctx, materialID, plant)
}

func (m *memStocks) Create(_ context.Context, st *entities.Stock) error {
	cp := *st
	m.stocks[stockKey(st.MaterialID, st.Plant)] = &cp
	return nil
}

func (m *memStocks) UpdateOnHand(_ context.Context, id string, onHand float64) error {
	for _, st := range m.stocks {
		if st.ID == id {
			st.OnHand = onHand
			return nil
		}
	}
	return entities.NotFoundError("stock %s not found", id)
}

type memBOMs memStore

func (m *memBOMs) HeaderExists(_ context.Context, bomID string) (bool, error) {
	_, ok := m.bomHeaders[bomID]
	return ok, nil
}

func (m *memBOMs) CreateHeader(_ context.Context, h *entities.BOMHeader) error {
	cp := *h
	m.bomHeaders[h.BOMID] = &cp
	return nil
}

func (m *memBOMs) CreateItem(_ context.Context, it *entities.BOMItem) error {
	cp := *it
	m.bomItems[it.BOMID] = append(m.bomItems[it.BOMID], &cp)
	return nil
}

func (m *memBOMs) HeadersByParent(_ context.Context, parent string) ([]entities.BOMHeader, error) {
	var out []entities.BOMHeader
	for _, h := range m.bomHeaders {
		if h.ParentMaterialID == parent {
			out = append(out, *h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BOMID < out[j].BOMID })
	return out, nil
}

func (m *memBOMs) ItemsByBOM(_ context.Context, bomID string) ([]entities.BOMItem, error) {
	var out []entities.BOMItem
	for _, it := range m.bomItems[bomID] {
		out = append(out, *it)
	}
	return out, nil
}

type memRoutings memStore

func (m *memRoutings) Exists(_ context.Context, id string) (bool, error) {
	_, ok := m.routings[id]
	return ok, nil
}

func (m *memRoutings) Create(_ context.Context, rt *entities.Routing) error {
	cp := *rt
	m.routings[rt.RoutingID] = &cp
	return nil
}

func (m *memRoutings) Get(_ context.Context, id string) (*entities.Routing, error) {
	rt, ok := m.routings[id]
	if !ok {
		return nil, entities.NotFoundError("routing %s not found", id)
	}
	cp := *rt
	return &cp, nil
}

func (m *memRoutings) List(_ context.Context, filter repository.RoutingFilter) ([]entities.Routing, error) {
	var out []entities.Routing
	for _, rt := range m.routings {
		if filter.MaterialID != "" && rt.MaterialID != filter.MaterialID {
			continue
		}
		if filter.Plant != "" && rt.Plant != filter.Plant {
			continue
		}
		if filter.Status != "" && rt.Status != filter.Status {
			continue
		}
		out = append(out, *rt)
	}
	return out, nil
}

func (m *memRoutings) Delete(_ context.Context, id string) error {
	delete(m.routings, id)
	delete(m.operations, id)
	return nil
}

func (m *memRoutings) CreateOperation(_ context.Context, op *entities.Operation) error {
	cp := *op
	m.operations[op.RoutingID] = append(m.operations[op.RoutingID], &cp)
	return nil
}

func (m *memRoutings) GetOperation(_ context.Context, routingID, operationID string) (*entities.Operation, error) {
	for _, op := range m.operations[routingID] {
		if op.OperationID == operationID {
			cp := *op
			return &cp, nil
		}
	}
	return nil, entities.NotFoundError("operation %s not found in routing %s", operationID, routingID)
}

func (m *memRoutings) UpdateOperation(_ context.Context, op *entities.Operation) error {
	for i, existing := range m.operations[op.RoutingID] {
		if existing.OperationID == op.OperationID {
			cp := *op
			m.operations[op.RoutingID][i] = &cp
			return nil
		}
	}
	return entities.NotFoundError("operation %s not found in routing %s", op.OperationID, op.RoutingID)
}

func (m *memRoutings) OperationsByRouting(_ context.Context, routingID string) ([]entities.Operation, error) {
	var out []entities.Operation
	for _, op := range m.operations[routingID] {
		out = append(out, *op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (m *memRoutings) CountOperations(_ context.Context, routingID string) (int, error) {
	return len(m.operations[routingID]), nil
}

type memOrders memStore

func (m *memOrders) Create(_ context.Context, o *entities.ProductionOrder) error {
	cp := *o
	m.orders[o.OrderID] = &cp
	return nil
}

func (m *memOrders) Get(_ context.Context, id string) (*entities.ProductionOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, entities.NotFoundError("order %s not found", id)
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) GetForUpdate(ctx context.Context, id string) (*entities.ProductionOrder, error) {
	return m.Get(ctx, id)
}

func (m *memOrders) Update(_ context.Context, o *entities.ProductionOrder) error {
	if _, ok := m.orders[o.OrderID]; !ok {
		return entities.NotFoundError("order %s not found", o.OrderID)
	}
	cp := *o
	m.orders[o.OrderID] = &cp
	return nil
}

func (m *memOrders) List(_ context.Context, filter repository.OrderFilter) ([]entities.ProductionOrder, error) {
	var out []entities.ProductionOrder
	for _, o := range m.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.Plant != "" && o.Plant != filter.Plant {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

func (m *memOrders) ListOpenWithinHorizon(_ context.Context, horizonEnd time.Time, plant string) ([]entities.ProductionOrder, error) {
	var out []entities.ProductionOrder
	for _, o := range m.orders {
		switch o.Status {
		case entities.OrderStatusCreated, entities.OrderStatusReleased, entities.OrderStatusInProgress:
		default:
			continue
		}
		if plant != "" && o.Plant != plant {
			continue
		}
		if o.DueDate.After(horizonEnd) {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

func (m *memOrders) CountByRouting(_ context.Context, routingID string) (int, error) {
	n := 0
	for _, o := range m.orders {
		if o.RoutingID == routingID {
			n++
		}
	}
	return n, nil
}

func (m *memOrders) CountByStatus(_ context.Context, statuses []entities.OrderStatus) (int, error) {
	n := 0
	for _, o := range m.orders {
		for _, st := range statuses {
			if o.Status == st {
				n++
				break
			}
		}
	}
	return n, nil
}

func (m *memOrders) CountAll(_ context.Context) (int, error) {
	return len(m.orders), nil
}

type memConfirmations memStore

func (m *memConfirmations) Create(_ context.Context, c *entities.OperationConfirmation) error {
	cp := *c
	m.confirmations[c.ConfirmationID] = &cp
	return nil
}

func (m *memConfirmations) Get(_ context.Context, id string) (*entities.OperationConfirmation, error) {
	c, ok := m.confirmations[id]
	if !ok {
		return nil, entities.NotFoundError("confirmation %s not found", id)
	}
	cp := *c
	return &cp, nil
}

func (m *memConfirmations) List(_ context.Context, filter repository.ConfirmationFilter) ([]entities.OperationConfirmation, error) {
	var out []entities.OperationConfirmation
	for _, c := range m.confirmations {
		if filter.OrderID != "" && c.OrderID != filter.OrderID {
			continue
		}
		if filter.WorkCenterID != "" && c.WorkCenterID != filter.WorkCenterID {
			continue
		}
		if filter.OperationID != "" && c.OperationID != filter.OperationID {
			continue
		}
		if filter.ConfirmationType != "" && c.ConfirmationType != filter.ConfirmationType {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConfirmationID < out[j].ConfirmationID })
	return out, nil
}

func (m *memConfirmations) ByOrder(ctx context.Context, orderID string) ([]entities.OperationConfirmation, error) {
	return m.List(ctx, repository.ConfirmationFilter{OrderID: orderID})
}

func (m *memConfirmations) CountFinalByOrder(_ context.Context, orderID string) (int, error) {
	n := 0
	for _, c := range m.confirmations {
		if c.OrderID == orderID && c.ConfirmationType == entities.ConfirmationFinal {
			n++
		}
	}
	return n, nil
}

func (m *memConfirmations) TotalYieldByOrder(_ context.Context, orderID string) (float64, error) {
	total := 0.0
	for _, c := range m.confirmations {
		if c.OrderID == orderID {
			total += c.YieldQty
		}
	}
	return total, nil
}

type memMovements memStore

func (m *memMovements) Create(_ context.Context, mv *entities.GoodsMovement) error {
	cp := *mv
	m.movements = append(m.movements, &cp)
	return nil
}

func (m *memMovements) List(_ context.Context, filter repository.MovementFilter) ([]entities.GoodsMovement, error) {
	var out []entities.GoodsMovement
	for _, mv := range m.movements {
		if filter.MaterialID != "" && mv.MaterialID != filter.MaterialID {
			continue
		}
		if filter.OrderID != "" && mv.OrderID != filter.OrderID {
			continue
		}
		if filter.MovementType != "" && mv.MovementType != filter.MovementType {
			continue
		}
		if filter.Plant != "" && mv.Plant != filter.Plant {
			continue
		}
		out = append(out, *mv)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

type memPlanning memStore

func (m *memPlanning) CreatePlannedOrder(_ context.Context, po *entities.PlannedOrder) error {
	cp := *po
	m.plannedOrders[po.PlannedOrderID] = &cp
	return nil
}

func (m *memPlanning) GetPlannedOrderForUpdate(_ context.Context, id string) (*entities.PlannedOrder, error) {
	po, ok := m.plannedOrders[id]
	if !ok {
		return nil, entities.NotFoundError("planned order %s not found", id)
	}
	cp := *po
	return &cp, nil
}

func (m *memPlanning) UpdatePlannedOrderStatus(_ context.Context, id string, status entities.PlannedOrderStatus) error {
	po, ok := m.plannedOrders[id]
	if !ok {
		return entities.NotFoundError("planned order %s not found", id)
	}
	po.Status = status
	return nil
}

func (m *memPlanning) ListPlannedOrders(_ context.Context, filter repository.PlanningFilter) ([]entities.PlannedOrder, error) {
	var out []entities.PlannedOrder
	for _, po := range m.plannedOrders {
		if filter.MaterialID != "" && po.MaterialID != filter.MaterialID {
			continue
		}
		if filter.Plant != "" && po.Plant != filter.Plant {
			continue
		}
		if filter.Status != "" && string(po.Status) != filter.Status {
			continue
		}
		if filter.MRPRunID != "" && po.CreatedByMRPRun != filter.MRPRunID {
			continue
		}
		out = append(out, *po)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlannedOrderID < out[j].PlannedOrderID })
	return out, nil
}

func (m *memPlanning) CreatePurchaseRequisition(_ context.Context, pr *entities.PurchaseRequisition) error {
	cp := *pr
	m.requisitions[pr.PRNumber] = &cp
	return nil
}

func (m *memPlanning) ListPurchaseRequisitions(_ context.Context, filter repository.PlanningFilter) ([]entities.PurchaseRequisition, error) {
	var out []entities.PurchaseRequisition
	for _, pr := range m.requisitions {
		if filter.MaterialID != "" && pr.MaterialID != filter.MaterialID {
			continue
		}
		if filter.Plant != "" && pr.Plant != filter.Plant {
			continue
		}
		if filter.Status != "" && string(pr.Status) != filter.Status {
			continue
		}
		if filter.MRPRunID != "" && pr.CreatedByMRPRun != filter.MRPRunID {
			continue
		}
		out = append(out, *pr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PRNumber < out[j].PRNumber })
	return out, nil
}

type memHistory memStore

func (m *memHistory) Create(_ context.Context, h *entities.OrderChangeHistory) error {
	cp := *h
	m.history = append(m.history, &cp)
	return nil
}

func (m *memHistory) ByOrder(_ context.Context, orderID string) ([]entities.OrderChangeHistory, error) {
	var out []entities.OrderChangeHistory
	for _, h := range m.history {
		if h.OrderID == orderID {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (m *memHistory) List(_ context.Context, filter repository.HistoryFilter) ([]entities.OrderChangeHistory, error) {
	var out []entities.OrderChangeHistory
	for _, h := range m.history {
		if filter.ChangeType != "" && h.ChangeType != filter.ChangeType {
			continue
		}
		if filter.ChangedBy != "" && h.ChangedBy != filter.ChangedBy {
			continue
		}
		out = append(out, *h)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}
