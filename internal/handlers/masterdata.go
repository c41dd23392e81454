package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/mrp-backend/internal/entities"
	"github.com/matheusmosca/mrp-backend/internal/repository"
	"github.com/matheusmosca/mrp-backend/internal/usecases"
)

// MasterDataUseCase is the surface the master data handlers depend on.
type MasterDataUseCase interface {
	CreateMaterial(ctx context.Context, req usecases.CreateMaterialRequest) (*entities.Material, error)
	GetMaterial(ctx context.Context, materialID string) (*entities.Material, error)
	ListMaterials(ctx context.Context, filter repository.MaterialFilter) ([]entities.Material, error)
	CreateWorkCenter(ctx context.Context, wc *entities.WorkCenter) (*entities.WorkCenter, error)
	GetWorkCenter(ctx context.Context, workCenterID string) (*entities.WorkCenter, error)
	ListWorkCenters(ctx context.Context, plant string) ([]entities.WorkCenter, error)
	CreateBOM(ctx context.Context, req usecases.CreateBOMRequest) (*usecases.BOMView, error)
	GetBOMsByParent(ctx context.Context, parentMaterialID string) ([]usecases.BOMView, error)
	ExplodeBOM(ctx context.Context, materialID string, qty float64) (map[string]float64, error)
	CreateRouting(ctx context.Context, req usecases.CreateRoutingRequest) (*usecases.RoutingView, error)
	GetRouting(ctx context.Context, routingID string) (*usecases.RoutingView, error)
	ListRoutings(ctx context.Context, filter repository.RoutingFilter) ([]entities.Routing, error)
	AddOperation(ctx context.Context, routingID string, req usecases.OperationRequest) (*entities.Operation, error)
	UpdateOperation(ctx context.Context, routingID string, req usecases.OperationRequest) (*entities.Operation, error)
	DeleteRouting(ctx context.Context, routingID string) error
}

// MasterDataHandler serves materials, work centers, BOMs and routings.
type MasterDataHandler struct {
	useCase MasterDataUseCase
}

func (h *MasterDataHandler) CreateMaterial(c *gin.Context) {
	var req usecases.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.useCase.CreateMaterial(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *MasterDataHandler) GetMaterial(c *gin.Context) {
	m, err := h.useCase.GetMaterial(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MasterDataHandler) ListMaterials(c *gin.Context) {
	filter := repository.MaterialFilter{
		Type:  entities.MaterialType(c.Query("type")),
		Plant: c.Query("plant"),
	}
	materials, err := h.useCase.ListMaterials(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": materials, "count": len(materials)})
}

func (h *MasterDataHandler) CreateWorkCenter(c *gin.Context) {
	var wc entities.WorkCenter
	if err := c.ShouldBindJSON(&wc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.useCase.CreateWorkCenter(c.Request.Context(), &wc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *MasterDataHandler) GetWorkCenter(c *gin.Context) {
	wc, err := h.useCase.GetWorkCenter(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wc)
}

func (h *MasterDataHandler) ListWorkCenters(c *gin.Context) {
	centers, err := h.useCase.ListWorkCenters(c.Request.Context(), c.Query("plant"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_centers": centers, "count": len(centers)})
}

func (h *MasterDataHandler) CreateBOM(c *gin.Context) {
	var req usecases.CreateBOMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.useCase.CreateBOM(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *MasterDataHandler) GetBOMs(c *gin.Context) {
	views, err := h.useCase.GetBOMsByParent(c.Request.Context(), c.Param("materialId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boms": views, "count": len(views)})
}

func (h *MasterDataHandler) ExplodeBOM(c *gin.Context) {
	qty := 1.0
	if raw := c.Query("quantity"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity"})
			return
		}
		qty = parsed
	}
	demand, err := h.useCase.ExplodeBOM(c.Request.Context(), c.Param("materialId"), qty)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"material_id": c.Param("materialId"), "quantity": qty, "components": demand})
}

func (h *MasterDataHandler) CreateRouting(c *gin.Context) {
	var req usecases.CreateRoutingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.useCase.CreateRouting(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *MasterDataHandler) GetRouting(c *gin.Context) {
	view, err := h.useCase.GetRouting(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *MasterDataHandler) ListRoutings(c *gin.Context) {
	filter := repository.RoutingFilter{
		MaterialID: c.Query("material_id"),
		Plant:      c.Query("plant"),
		Status:     entities.RoutingStatus(c.Query("status")),
	}
	routings, err := h.useCase.ListRoutings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routings": routings, "count": len(routings)})
}

func (h *MasterDataHandler) AddOperation(c *gin.Context) {
	var req usecases.OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	op, err := h.useCase.AddOperation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, op)
}

func (h *MasterDataHandler) UpdateOperation(c *gin.Context) {
	var req usecases.OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.OperationID = c.Param("opId")
	op, err := h.useCase.UpdateOperation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, op)
}

func (h *MasterDataHandler) DeleteRouting(c *gin.Context) {
	if err := h.useCase.DeleteRouting(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "routing deleted"})
}
