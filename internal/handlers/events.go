package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matheusmosca/mrp-backend/internal/notify"
)

// EventsHandler serves the websocket stream and webhook subscriptions.
type EventsHandler struct {
	hub    *notify.Hub
	logger *slog.Logger
}

// ServeWS upgrades the connection and attaches it to the event hub.
func (h *EventsHandler) ServeWS(c *gin.Context) {
	notify.ServeWS(h.hub, h.logger, c.Writer, c.Request)
}

type webhookSubscription struct {
	URL string `json:"url" binding:"required,url"`
}

// SubscribeWebhook registers a callback URL for event delivery.
func (h *EventsHandler) SubscribeWebhook(c *gin.Context) {
	var req webhookSubscription
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := "WH-" + uuid.New().String()
	h.hub.Subscribe(notify.NewWebhookSubscriber(id, req.URL))
	c.JSON(http.StatusCreated, gin.H{"subscription_id": id, "url": req.URL})
}

// UnsubscribeWebhook removes a webhook subscription by ID.
func (h *EventsHandler) UnsubscribeWebhook(c *gin.Context) {
	h.hub.Unsubscribe(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "subscription removed"})
}
