// Package handlers exposes the HTTP API. Handlers bind and validate
// the wire payloads, call the usecases and map domain errors to HTTP
// status codes; business rules live in the usecases.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/mrp-backend/internal/notify"
)

// Handler bundles the API surface behind one registration point.
type Handler struct {
	masterData    *MasterDataHandler
	orders        *OrderHandler
	confirmations *ConfirmationHandler
	inventory     *InventoryHandler
	mrp           *MRPHandler
	events        *EventsHandler
}

// NewHandler wires every area handler.
func NewHandler(
	masterData MasterDataUseCase,
	orders OrderUseCase,
	confirmations ConfirmationUseCase,
	inventory InventoryUseCase,
	mrp MRPUseCase,
	hub *notify.Hub,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		masterData:    &MasterDataHandler{useCase: masterData},
		orders:        &OrderHandler{useCase: orders, tracer: tracer},
		confirmations: &ConfirmationHandler{useCase: confirmations, tracer: tracer},
		inventory:     &InventoryHandler{useCase: inventory},
		mrp:           &MRPHandler{useCase: mrp, tracer: tracer},
		events:        &EventsHandler{hub: hub, logger: logger},
	}
}

// RegisterRoutes mounts every endpoint on the router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/ws", h.events.ServeWS)

	api := r.Group("/api")
	{
		api.POST("/materials", h.masterData.CreateMaterial)
		api.GET("/materials", h.masterData.ListMaterials)
		api.GET("/materials/:id", h.masterData.GetMaterial)

		api.POST("/work-centers", h.masterData.CreateWorkCenter)
		api.GET("/work-centers", h.masterData.ListWorkCenters)
		api.GET("/work-centers/:id", h.masterData.GetWorkCenter)

		api.POST("/boms", h.masterData.CreateBOM)
		api.GET("/boms/:materialId", h.masterData.GetBOMs)
		api.GET("/boms/:materialId/explode", h.masterData.ExplodeBOM)

		api.POST("/routings", h.masterData.CreateRouting)
		api.GET("/routings", h.masterData.ListRoutings)
		api.GET("/routings/:id", h.masterData.GetRouting)
		api.DELETE("/routings/:id", h.masterData.DeleteRouting)
		api.POST("/routings/:id/operations", h.masterData.AddOperation)
		api.PUT("/routings/:id/operations/:opId", h.masterData.UpdateOperation)

		api.POST("/production-orders", h.orders.Create)
		api.GET("/production-orders", h.orders.List)
		api.GET("/production-orders/:id", h.orders.Get)
		api.POST("/production-orders/:id/release", h.orders.Release)
		api.POST("/production-orders/:id/confirm", h.orders.ConfirmSimple)
		api.POST("/production-orders/:id/complete", h.orders.Complete)

		api.POST("/order-changes/:orderId/change", h.orders.Change)
		api.POST("/order-changes/:orderId/bulk-change", h.orders.BulkChange)
		api.POST("/order-changes/:orderId/impact-analysis", h.orders.ImpactAnalysis)
		api.GET("/order-changes/:orderId/history", h.orders.History)
		api.GET("/order-changes/history", h.orders.ListChanges)

		api.POST("/operation-confirmations", h.confirmations.Create)
		api.POST("/operation-confirmations/batch", h.confirmations.CreateBatch)
		api.GET("/operation-confirmations", h.confirmations.List)
		api.GET("/operation-confirmations/:id", h.confirmations.Get)
		api.GET("/operation-confirmations/order/:orderId", h.confirmations.OrderDetail)

		api.POST("/goods-movements/issue", h.inventory.GoodsIssue)
		api.POST("/goods-movements/receipt", h.inventory.GoodsReceipt)
		api.GET("/goods-movements", h.inventory.ListMovements)

		api.POST("/mrp/run", h.mrp.Run)
		api.POST("/mrp/forecast", h.mrp.Forecast)
		api.GET("/mrp/planned-orders", h.mrp.ListPlannedOrders)
		api.POST("/mrp/planned-orders/:id/convert", h.mrp.ConvertPlannedOrder)
		api.GET("/mrp/purchase-requisitions", h.mrp.ListPurchaseRequisitions)

		api.GET("/analytics/metrics", h.inventory.Metrics)

		api.POST("/subscriptions/webhooks", h.events.SubscribeWebhook)
		api.DELETE("/subscriptions/webhooks/:id", h.events.UnsubscribeWebhook)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "mrp-backend"})
}
