package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/services"
	"kitchen_inventory_backend/pkg/clients/line"
	"kitchen_inventory_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

// NotificationHandler triggers low-stock pushes and answers the chat webhook.
type NotificationHandler struct {
	notificationService services.NotificationService
	channelSecret       string
}

// NewNotificationHandler creates a new NotificationHandler. Webhook bodies are verified with channelSecret.
func NewNotificationHandler(ns services.NotificationService, channelSecret string) *NotificationHandler {
	return &NotificationHandler{notificationService: ns, channelSecret: channelSecret}
}

// SendLowStock pushes the low-stock summary now.
func (h *NotificationHandler) SendLowStock(c *gin.Context) {
	notification, err := h.notificationService.SendLowStockSummary(c.Request.Context(), models.TriggerManual)
	if err != nil {
		respondServiceError(c, err, "Failed to send low stock notification.")
		return
	}
	if notification.ItemCount == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No low stock ingredients", "notification": notification})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Low stock notification sent", "notification": notification})
}

// LineWebhook verifies the signature and hands the events to the notification service.
func (h *NotificationHandler) LineWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		respondBindError(c, err, "LineWebhook")
		return
	}
	if !line.VerifySignature(h.channelSecret, body, c.GetHeader(line.SignatureHeader)) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid signature.", ""))
		return
	}

	var payload line.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		respondBindError(c, err, "LineWebhook")
		return
	}
	if err := h.notificationService.HandleWebhook(c.Request.Context(), payload); err != nil {
		respondServiceError(c, err, "Failed to handle webhook.")
		return
	}
	c.Status(http.StatusOK)
}
