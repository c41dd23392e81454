package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/mrp-backend/internal/entities"
	"github.com/matheusmosca/mrp-backend/internal/repository"
	"github.com/matheusmosca/mrp-backend/internal/usecases"
)

// MRPUseCase is the surface the planning handlers depend on.
type MRPUseCase interface {
	Run(ctx context.Context, req usecases.MRPRunRequest) (*usecases.MRPRunResult, error)
	Forecast(ctx context.Context, req usecases.MRPRunRequest) ([]usecases.ProcurementLine, error)
	ListPlannedOrders(ctx context.Context, filter repository.PlanningFilter) ([]entities.PlannedOrder, error)
	ListPurchaseRequisitions(ctx context.Context, filter repository.PlanningFilter) ([]entities.PurchaseRequisition, error)
	ConvertPlannedOrder(ctx context.Context, plannedOrderID string) (*entities.ProductionOrder, error)
}

// MRPHandler serves the planning run, forecast and conversion endpoints.
type MRPHandler struct {
	useCase MRPUseCase
	tracer  trace.Tracer
}

func (h *MRPHandler) Run(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "mrp_run")
	defer span.End()

	var req usecases.MRPRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := h.useCase.Run(ctx, req)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	span.SetAttributes(
		attribute.String("run_id", result.RunID),
		attribute.Int("shortages", len(result.Shortages)),
	)
	c.JSON(http.StatusOK, result)
}

func (h *MRPHandler) Forecast(c *gin.Context) {
	var req usecases.MRPRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	lines, err := h.useCase.Forecast(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"procurement_plan": lines, "count": len(lines)})
}

func (h *MRPHandler) ListPlannedOrders(c *gin.Context) {
	filter := repository.PlanningFilter{
		MaterialID: c.Query("material_id"),
		Plant:      c.Query("plant"),
		Status:     c.Query("status"),
		MRPRunID:   c.Query("mrp_run_id"),
	}
	orders, err := h.useCase.ListPlannedOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"planned_orders": orders, "count": len(orders)})
}

func (h *MRPHandler) ListPurchaseRequisitions(c *gin.Context) {
	filter := repository.PlanningFilter{
		MaterialID: c.Query("material_id"),
		Plant:      c.Query("plant"),
		Status:     c.Query("status"),
		MRPRunID:   c.Query("mrp_run_id"),
	}
	reqs, err := h.useCase.ListPurchaseRequisitions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchase_requisitions": reqs, "count": len(reqs)})
}

func (h *MRPHandler) ConvertPlannedOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "convert_planned_order")
	defer span.End()
	span.SetAttributes(attribute.String("planned_order_id", c.Param("id")))

	order, err := h.useCase.ConvertPlannedOrder(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}
