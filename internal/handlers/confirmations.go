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

// ConfirmationUseCase is the surface the confirmation handlers depend on.
type ConfirmationUseCase interface {
	Create(ctx context.Context, req usecases.ConfirmationRequest) (*usecases.ConfirmationResult, error)
	CreateBatch(ctx context.Context, reqs []usecases.ConfirmationRequest) ([]*usecases.ConfirmationResult, error)
	Get(ctx context.Context, confirmationID string) (*entities.OperationConfirmation, error)
	List(ctx context.Context, filter repository.ConfirmationFilter) ([]entities.OperationConfirmation, error)
	OrderDetail(ctx context.Context, orderID string) (*usecases.OrderConfirmationDetail, error)
}

// ConfirmationHandler serves the operation confirmation endpoints.
type ConfirmationHandler struct {
	useCase ConfirmationUseCase
	tracer  trace.Tracer
}

func (h *ConfirmationHandler) Create(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_confirmation")
	defer span.End()

	var req usecases.ConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(
		attribute.String("order_id", req.OrderID),
		attribute.String("operation_id", req.OperationID),
		attribute.Float64("yield_qty", req.YieldQty),
	)

	result, err := h.useCase.Create(ctx, req)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *ConfirmationHandler) CreateBatch(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_confirmation_batch")
	defer span.End()

	var body struct {
		Confirmations []usecases.ConfirmationRequest `json:"confirmations"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.Int("batch_size", len(body.Confirmations)))

	results, err := h.useCase.CreateBatch(ctx, body.Confirmations)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"results": results, "count": len(results)})
}

func (h *ConfirmationHandler) Get(c *gin.Context) {
	conf, err := h.useCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conf)
}

func (h *ConfirmationHandler) List(c *gin.Context) {
	filter := repository.ConfirmationFilter{
		OrderID:          c.Query("order_id"),
		WorkCenterID:     c.Query("work_center_id"),
		OperationID:      c.Query("operation_id"),
		ConfirmationType: entities.ConfirmationType(c.Query("confirmation_type")),
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}
	confs, err := h.useCase.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"confirmations": confs, "count": len(confs)})
}

func (h *ConfirmationHandler) OrderDetail(c *gin.Context) {
	detail, err := h.useCase.OrderDetail(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
