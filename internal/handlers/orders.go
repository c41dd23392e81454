package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/mrp-backend/internal/entities"
	"github.com/matheusmosca/mrp-backend/internal/repository"
	"github.com/matheusmosca/mrp-backend/internal/usecases"
)

// OrderUseCase is the surface the production order handlers depend on.
type OrderUseCase interface {
	Create(ctx context.Context, req usecases.CreateOrderRequest) (*entities.ProductionOrder, error)
	Get(ctx context.Context, orderID string) (*entities.ProductionOrder, error)
	List(ctx context.Context, filter repository.OrderFilter) ([]entities.ProductionOrder, error)
	Release(ctx context.Context, orderID string) (*entities.ProductionOrder, error)
	ConfirmSimple(ctx context.Context, orderID string, req usecases.SimpleConfirmRequest) (*entities.OperationConfirmation, error)
	Complete(ctx context.Context, orderID string) (*entities.ProductionOrder, error)
	Change(ctx context.Context, orderID string, req usecases.ChangeRequest) (*entities.OrderChangeHistory, error)
	BulkChange(ctx context.Context, orderID string, reqs []usecases.ChangeRequest) (*usecases.BulkChangeResult, error)
	AnalyzeImpact(ctx context.Context, orderID, fieldName, newValue string) (*entities.ImpactAnalysis, error)
	History(ctx context.Context, orderID string) ([]entities.OrderChangeHistory, error)
	ListChanges(ctx context.Context, filter repository.HistoryFilter) ([]entities.OrderChangeHistory, error)
}

// OrderHandler serves the production order lifecycle and change
// management endpoints.
type OrderHandler struct {
	useCase OrderUseCase
	tracer  trace.Tracer
}

func (h *OrderHandler) Create(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_production_order")
	defer span.End()

	var req usecases.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(
		attribute.String("material_id", req.MaterialID),
		attribute.Float64("quantity", req.Quantity),
	)

	order, err := h.useCase.Create(ctx, req)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	span.SetAttributes(attribute.String("order_id", order.OrderID))
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.useCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) List(c *gin.Context) {
	filter := repository.OrderFilter{
		Status: entities.OrderStatus(c.Query("status")),
		Plant:  c.Query("plant"),
	}
	orders, err := h.useCase.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (h *OrderHandler) Release(c *gin.Context) {
	order, err := h.useCase.Release(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ConfirmSimple(c *gin.Context) {
	var req usecases.SimpleConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conf, err := h.useCase.ConfirmSimple(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conf)
}

func (h *OrderHandler) Complete(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "complete_production_order")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", c.Param("id")))

	order, err := h.useCase.Complete(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Change(c *gin.Context) {
	var req usecases.ChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	record, err := h.useCase.Change(c.Request.Context(), c.Param("orderId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *OrderHandler) BulkChange(c *gin.Context) {
	var body struct {
		Changes []usecases.ChangeRequest `json:"changes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.useCase.BulkChange(c.Request.Context(), c.Param("orderId"), body.Changes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) ImpactAnalysis(c *gin.Context) {
	var req struct {
		FieldName string `json:"field_name"`
		NewValue  string `json:"new_value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	analysis, err := h.useCase.AnalyzeImpact(c.Request.Context(), c.Param("orderId"), req.FieldName, req.NewValue)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *OrderHandler) History(c *gin.Context) {
	history, err := h.useCase.History(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": c.Param("orderId"), "changes": history, "count": len(history)})
}

func (h *OrderHandler) ListChanges(c *gin.Context) {
	filter := repository.HistoryFilter{
		ChangeType: entities.ChangeType(c.Query("change_type")),
		ChangedBy:  c.Query("changed_by"),
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}
	changes, err := h.useCase.ListChanges(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": changes, "count": len(changes)})
}
