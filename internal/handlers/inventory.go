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

// InventoryUseCase is the surface the goods movement handlers depend on.
type InventoryUseCase interface {
	GoodsIssue(ctx context.Context, req usecases.MovementRequest) (*entities.GoodsMovement, error)
	GoodsReceipt(ctx context.Context, req usecases.MovementRequest) (*entities.GoodsMovement, error)
	ListMovements(ctx context.Context, filter repository.MovementFilter) ([]entities.GoodsMovement, error)
	Metrics(ctx context.Context) (*usecases.ProductionMetrics, error)
}

// InventoryHandler serves goods movements and the analytics snapshot.
type InventoryHandler struct {
	useCase InventoryUseCase
}

func (h *InventoryHandler) GoodsIssue(c *gin.Context) {
	var req usecases.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mv, err := h.useCase.GoodsIssue(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mv)
}

func (h *InventoryHandler) GoodsReceipt(c *gin.Context) {
	var req usecases.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mv, err := h.useCase.GoodsReceipt(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mv)
}

func (h *InventoryHandler) ListMovements(c *gin.Context) {
	filter := repository.MovementFilter{
		MaterialID:   c.Query("material_id"),
		OrderID:      c.Query("order_id"),
		MovementType: entities.MovementType(c.Query("movement_type")),
		Plant:        c.Query("plant"),
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}
	movements, err := h.useCase.ListMovements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements, "count": len(movements)})
}

func (h *InventoryHandler) Metrics(c *gin.Context) {
	metrics, err := h.useCase.Metrics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}
