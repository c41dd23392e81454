package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/matheusmosca/mrp-backend/internal/entities"
	"github.com/matheusmosca/mrp-backend/internal/notify"
	"github.com/matheusmosca/mrp-backend/internal/repository"
)

// CreateMaterialRequest carries a new material master record.
type CreateMaterialRequest struct {
	MaterialID      string          `json:"material_id"`
	Description     string          `json:"description"`
	Type            string          `json:"type"`
	CurrentStock    float64         `json:"current_stock"`
	MinStock        float64         `json:"min_stock"`
	MaxStock        float64         `json:"max_stock"`
	UnitOfMeasure   string          `json:"unit_of_measure"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Plant           string          `json:"plant"`
	StorageLocation string          `json:"storage_location"`
}

// BOMItemRequest is one component line of a new BOM.
type BOMItemRequest struct {
	ComponentMaterialID string  `json:"component_material_id"`
	Quantity            float64 `json:"quantity"`
	Position            int     `json:"position"`
}

// CreateBOMRequest carries a new bill of materials with its items.
type CreateBOMRequest struct {
	BOMID            string           `json:"bom_id"`
	ParentMaterialID string           `json:"parent_material_id"`
	Version          string           `json:"version"`
	Items            []BOMItemRequest `json:"items"`
}

// BOMView is a header joined with its items for reading.
type BOMView struct {
	Header entities.BOMHeader `json:"header"`
	Items  []entities.BOMItem `json:"items"`
}

// OperationRequest is one routing operation.
type OperationRequest struct {
	OperationID  string  `json:"operation_id"`
	WorkCenterID string  `json:"work_center_id"`
	Description  string  `json:"description"`
	Sequence     int     `json:"sequence"`
	SetupTime    float64 `json:"setup_time"`
	MachineTime  float64 `json:"machine_time"`
	LaborTime    float64 `json:"labor_time"`
	ControlKey   string  `json:"control_key"`
}

// CreateRoutingRequest carries a new routing with its operations.
type CreateRoutingRequest struct {
	RoutingID   string             `json:"routing_id"`
	MaterialID  string             `json:"material_id"`
	Description string             `json:"description"`
	Version     string             `json:"version"`
	Plant       string             `json:"plant"`
	Operations  []OperationRequest `json:"operations"`
}

// RoutingView is a routing joined with its operations for reading.
type RoutingView struct {
	Routing    entities.Routing     `json:"routing"`
	Operations []entities.Operation `json:"operations"`
}

// MasterDataUseCase implements materials, work centers, BOMs and
// routings.
type MasterDataUseCase struct {
	store     repository.Store
	publisher Publisher
	logger    *slog.Logger
	plant     string
}

// NewMasterDataUseCase wires the master data logic.
func NewMasterDataUseCase(store repository.Store, publisher Publisher, logger *slog.Logger, plant string) *MasterDataUseCase {
	uc := &MasterDataUseCase{store: store, publisher: publisher, logger: logger, plant: plant}
	if uc.publisher == nil {
		uc.publisher = noopPublisher{}
	}
	if uc.plant == "" {
		uc.plant = defaultPlant
	}
	return uc
}

// CreateMaterial validates and persists a material master record. The
// stock status is derived, never taken from the caller.
func (uc *MasterDataUseCase) CreateMaterial(ctx context.Context, req CreateMaterialRequest) (*entities.Material, error) {
	if req.MaterialID == "" {
		return nil, entities.ValidationError("material_id is required")
	}
	mt := entities.MaterialType(req.Type)
	if !entities.ValidMaterialType(mt) {
		return nil, entities.ValidationError("invalid material type %q", req.Type)
	}
	if req.Plant == "" {
		req.Plant = uc.plant
	}

	exists, err := uc.store.Materials().Exists(ctx, req.MaterialID)
	if err != nil {
		return nil, fmt.Errorf("checking material: %w", err)
	}
	if exists {
		return nil, entities.ConflictError("material %s already exists", req.MaterialID)
	}

	m := &entities.Material{
		MaterialID:      req.MaterialID,
		Description:     req.Description,
		Type:            mt,
		CurrentStock:    req.CurrentStock,
		MinStock:        req.MinStock,
		MaxStock:        req.MaxStock,
		UnitOfMeasure:   req.UnitOfMeasure,
		UnitPrice:       req.UnitPrice,
		Plant:           req.Plant,
		StorageLocation: req.StorageLocation,
	}
	m.Status = m.DeriveStockStatus()
	if err := uc.store.Materials().Create(ctx, m); err != nil {
		return nil, err
	}

	uc.logger.Info("material created", "material_id", m.MaterialID, "type", m.Type)
	uc.publisher.Publish(notify.NewEvent(notify.EventMaterialCreated, map[string]any{
		"material_id": m.MaterialID,
		"type":        string(m.Type),
	}))
	return m, nil
}

// GetMaterial returns one material by ID.
func (uc *MasterDataUseCase) GetMaterial(ctx context.Context, materialID string) (*entities.Material, error) {
	return uc.store.Materials().Get(ctx, materialID)
}

// ListMaterials returns materials matching the filter.
func (uc *MasterDataUseCase) ListMaterials(ctx context.Context, filter repository.MaterialFilter) ([]entities.Material, error) {
	return uc.store.Materials().List(ctx, filter)
}

// CreateWorkCenter validates and persists a work center.
func (uc *MasterDataUseCase) CreateWorkCenter(ctx context.Context, wc *entities.WorkCenter) (*entities.WorkCenter, error) {
	if wc.WorkCenterID == "" {
		return nil, entities.ValidationError("work_center_id is required")
	}
	if wc.Status == "" {
		wc.Status = entities.WorkCenterStatusActive
	}
	if wc.Plant == "" {
		wc.Plant = uc.plant
	}

	exists, err := uc.store.WorkCenters().Exists(ctx, wc.WorkCenterID)
	if err != nil {
		return nil, fmt.Errorf("checking work center: %w", err)
	}
	if exists {
		return nil, entities.ConflictError("work center %s already exists", wc.WorkCenterID)
	}
	if err := uc.store.WorkCenters().Create(ctx, wc); err != nil {
		return nil, err
	}
	uc.logger.Info("work center created", "work_center_id", wc.WorkCenterID)
	return wc, nil
}

// GetWorkCenter returns one work center by ID.
func (uc *MasterDataUseCase) GetWorkCenter(ctx context.Context, workCenterID string) (*entities.WorkCenter, error) {
	return uc.store.WorkCenters().Get(ctx, workCenterID)
}

// ListWorkCenters returns work centers, optionally by plant.
func (uc *MasterDataUseCase) ListWorkCenters(ctx context.Context, plant string) ([]entities.WorkCenter, error) {
	return uc.store.WorkCenters().List(ctx, plant)
}

// CreateBOM validates and persists a BOM header with its items. BOMs
// that would close a cycle in the BOM graph are rejected up front.
func (uc *MasterDataUseCase) CreateBOM(ctx context.Context, req CreateBOMRequest) (*BOMView, error) {
	if req.BOMID == "" {
		return nil, entities.ValidationError("bom_id is required")
	}
	if len(req.Items) == 0 {
		return nil, entities.ValidationError("a BOM needs at least one item")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, entities.ValidationError("component %s: quantity must be greater than 0", item.ComponentMaterialID)
		}
	}

	var view *BOMView
	err := uc.store.InTx(ctx, func(s repository.Store) error {
		exists, err := s.BOMs().HeaderExists(ctx, req.BOMID)
		if err != nil {
			return err
		}
		if exists {
			return entities.ConflictError("BOM %s already exists", req.BOMID)
		}

		parentExists, err := s.Materials().Exists(ctx, req.ParentMaterialID)
		if err != nil {
			return err
		}
		if !parentExists {
			return entities.NotFoundError("parent material %s not found", req.ParentMaterialID)
		}
		componentIDs := make([]string, 0, len(req.Items))
		for _, item := range req.Items {
			ok, err := s.Materials().Exists(ctx, item.ComponentMaterialID)
			if err != nil {
				return err
			}
			if !ok {
				return entities.NotFoundError("component material %s not found", item.ComponentMaterialID)
			}
			componentIDs = append(componentIDs, item.ComponentMaterialID)
		}

		cyclic, err := NewBOMExploder(s.BOMs()).WouldCycle(ctx, req.ParentMaterialID, componentIDs)
		if err != nil {
			return err
		}
		if cyclic {
			return entities.ValidationError("BOM would create a cycle through material %s", req.ParentMaterialID)
		}

		header := &entities.BOMHeader{
			BOMID:            req.BOMID,
			ParentMaterialID: req.ParentMaterialID,
			Version:          req.Version,
		}
		if err := s.BOMs().CreateHeader(ctx, header); err != nil {
			return err
		}
		view = &BOMView{Header: *header, Items: make([]entities.BOMItem, 0, len(req.Items))}
		for i, item := range req.Items {
			position := item.Position
			if position == 0 {
				position = (i + 1) * 10
			}
			bi := &entities.BOMItem{
				BOMItemID:           fmt.Sprintf("%s-%04d", req.BOMID, position),
				BOMID:               req.BOMID,
				ComponentMaterialID: item.ComponentMaterialID,
				Quantity:            item.Quantity,
				Position:            position,
			}
			if err := s.BOMs().CreateItem(ctx, bi); err != nil {
				return err
			}
			view.Items = append(view.Items, *bi)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("BOM created", "bom_id", req.BOMID, "parent", req.ParentMaterialID, "items", len(req.Items))
	return view, nil
}

// GetBOMsByParent returns every BOM of a parent material with items.
func (uc *MasterDataUseCase) GetBOMsByParent(ctx context.Context, parentMaterialID string) ([]BOMView, error) {
	headers, err := uc.store.BOMs().HeadersByParent(ctx, parentMaterialID)
	if err != nil {
		return nil, err
	}
	if len(headers) == 0 {
		return nil, entities.NotFoundError("no BOM found for material %s", parentMaterialID)
	}
	views := make([]BOMView, 0, len(headers))
	for _, header := range headers {
		items, err := uc.store.BOMs().ItemsByBOM(ctx, header.BOMID)
		if err != nil {
			return nil, err
		}
		views = append(views, BOMView{Header: header, Items: items})
	}
	return views, nil
}

// ExplodeBOM returns the total component demand of producing qty units
// of the material.
func (uc *MasterDataUseCase) ExplodeBOM(ctx context.Context, materialID string, qty float64) (map[string]float64, error) {
	if qty <= 0 {
		return nil, entities.ValidationError("quantity must be greater than 0")
	}
	demand := map[string]float64{}
	if err := NewBOMExploder(uc.store.BOMs()).Explode(ctx, materialID, qty, demand); err != nil {
		return nil, err
	}
	return demand, nil
}

// CreateRouting validates and persists a routing with its operations in
// one transaction.
func (uc *MasterDataUseCase) CreateRouting(ctx context.Context, req CreateRoutingRequest) (*RoutingView, error) {
	if req.RoutingID == "" {
		return nil, entities.ValidationError("routing_id is required")
	}
	if req.Plant == "" {
		req.Plant = uc.plant
	}

	var view *RoutingView
	err := uc.store.InTx(ctx, func(s repository.Store) error {
		exists, err := s.Routings().Exists(ctx, req.RoutingID)
		if err != nil {
			return err
		}
		if exists {
			return entities.ConflictError("routing %s already exists", req.RoutingID)
		}
		materialExists, err := s.Materials().Exists(ctx, req.MaterialID)
		if err != nil {
			return err
		}
		if !materialExists {
			return entities.NotFoundError("material %s not found", req.MaterialID)
		}

		now := time.Now().UTC()
		rt := &entities.Routing{
			RoutingID:   req.RoutingID,
			MaterialID:  req.MaterialID,
			Description: req.Description,
			Version:     req.Version,
			Status:      entities.RoutingStatusActive,
			Plant:       req.Plant,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.Routings().Create(ctx, rt); err != nil {
			return err
		}

		view = &RoutingView{Routing: *rt, Operations: make([]entities.Operation, 0, len(req.Operations))}
		seen := map[string]bool{}
		for _, opReq := range req.Operations {
			if seen[opReq.OperationID] {
				return entities.ConflictError("duplicate operation %s in routing %s", opReq.OperationID, req.RoutingID)
			}
			seen[opReq.OperationID] = true

			op, err := uc.buildOperation(ctx, s, req.RoutingID, opReq, now)
			if err != nil {
				return err
			}
			if err := s.Routings().CreateOperation(ctx, op); err != nil {
				return err
			}
			view.Operations = append(view.Operations, *op)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("routing created", "routing_id", req.RoutingID, "operations", len(req.Operations))
	return view, nil
}

func (uc *MasterDataUseCase) buildOperation(ctx context.Context, s repository.Store, routingID string, req OperationRequest, now time.Time) (*entities.Operation, error) {
	if req.OperationID == "" {
		return nil, entities.ValidationError("operation_id is required")
	}
	wcExists, err := s.WorkCenters().Exists(ctx, req.WorkCenterID)
	if err != nil {
		return nil, err
	}
	if !wcExists {
		return nil, entities.NotFoundError("work center %s not found", req.WorkCenterID)
	}
	return &entities.Operation{
		OperationID:  req.OperationID,
		RoutingID:    routingID,
		WorkCenterID: req.WorkCenterID,
		Description:  req.Description,
		Sequence:     req.Sequence,
		SetupTime:    req.SetupTime,
		MachineTime:  req.MachineTime,
		LaborTime:    req.LaborTime,
		Status:       entities.OperationStatusActive,
		ControlKey:   req.ControlKey,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetRouting returns one routing with its operations ordered by
// sequence.
func (uc *MasterDataUseCase) GetRouting(ctx context.Context, routingID string) (*RoutingView, error) {
	rt, err := uc.store.Routings().Get(ctx, routingID)
	if err != nil {
		return nil, err
	}
	ops, err := uc.store.Routings().OperationsByRouting(ctx, routingID)
	if err != nil {
		return nil, err
	}
	return &RoutingView{Routing: *rt, Operations: ops}, nil
}

// ListRoutings returns routings matching the filter.
func (uc *MasterDataUseCase) ListRoutings(ctx context.Context, filter repository.RoutingFilter) ([]entities.Routing, error) {
	return uc.store.Routings().List(ctx, filter)
}

// AddOperation appends an operation to an existing routing.
func (uc *MasterDataUseCase) AddOperation(ctx context.Context, routingID string, req OperationRequest) (*entities.Operation, error) {
	var op *entities.Operation
	err := uc.store.InTx(ctx, func(s repository.Store) error {
		exists, err := s.Routings().Exists(ctx, routingID)
		if err != nil {
			return err
		}
		if !exists {
			return entities.NotFoundError("routing %s not found", routingID)
		}
		if _, err := s.Routings().GetOperation(ctx, routingID, req.OperationID); err == nil {
			return entities.ConflictError("operation %s already exists in routing %s", req.OperationID, routingID)
		} else if entities.KindOf(err) != entities.KindNotFound {
			return err
		}

		op, err = uc.buildOperation(ctx, s, routingID, req, time.Now().UTC())
		if err != nil {
			return err
		}
		return s.Routings().CreateOperation(ctx, op)
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}

// UpdateOperation replaces an operation's mutable attributes.
func (uc *MasterDataUseCase) UpdateOperation(ctx context.Context, routingID string, req OperationRequest) (*entities.Operation, error) {
	var op *entities.Operation
	err := uc.store.InTx(ctx, func(s repository.Store) error {
		var err error
		op, err = s.Routings().GetOperation(ctx, routingID, req.OperationID)
		if err != nil {
			return err
		}
		if req.WorkCenterID != "" && req.WorkCenterID != op.WorkCenterID {
			wcExists, err := s.WorkCenters().Exists(ctx, req.WorkCenterID)
			if err != nil {
				return err
			}
			if !wcExists {
				return entities.NotFoundError("work center %s not found", req.WorkCenterID)
			}
			op.WorkCenterID = req.WorkCenterID
		}
		if req.Description != "" {
			op.Description = req.Description
		}
		if req.Sequence != 0 {
			op.Sequence = req.Sequence
		}
		op.SetupTime = req.SetupTime
		op.MachineTime = req.MachineTime
		op.LaborTime = req.LaborTime
		if req.ControlKey != "" {
			op.ControlKey = req.ControlKey
		}
		op.UpdatedAt = time.Now().UTC()
		return s.Routings().UpdateOperation(ctx, op)
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}

// DeleteRouting removes a routing and its operations. Deletion is
// blocked while any production order references the routing.
func (uc *MasterDataUseCase) DeleteRouting(ctx context.Context, routingID string) error {
	return uc.store.InTx(ctx, func(s repository.Store) error {
		exists, err := s.Routings().Exists(ctx, routingID)
		if err != nil {
			return err
		}
		if !exists {
			return entities.NotFoundError("routing %s not found", routingID)
		}
		refs, err := s.Orders().CountByRouting(ctx, routingID)
		if err != nil {
			return err
		}
		if refs > 0 {
			return entities.ConflictError("routing %s is referenced by %d production orders", routingID, refs)
		}
		return s.Routings().Delete(ctx, routingID)
	})
}
