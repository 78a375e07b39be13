package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aldenvr/stagepass/internal/models"
	"github.com/aldenvr/stagepass/internal/monitoring"
	"github.com/aldenvr/stagepass/internal/payment"
	"github.com/aldenvr/stagepass/internal/services"
)

type WebhookHandler struct {
	orders         *services.OrderService
	providerName   string
	callbackSecret string
}

func NewWebhookHandler(orders *services.OrderService, providerName, callbackSecret string) *WebhookHandler {
	return &WebhookHandler{
		orders:         orders,
		providerName:   providerName,
		callbackSecret: callbackSecret,
	}
}

type webhookPayload struct {
	EventID string `json:"event_id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// Receive handles provider payment notifications. It always answers 200 so
// the provider stops retrying; everything that can go wrong is logged and
// absorbed, and a genuinely lost notice is caught later by reconciliation
// through the event log.
func (h *WebhookHandler) Receive(c *gin.Context) {
	defer c.JSON(http.StatusOK, gin.H{"message": "OK"})

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logrus.WithError(err).Warn("failed to read webhook body")
		monitoring.ObserveWebhook("unreadable")
		return
	}

	if !payment.VerifyCallbackSignature(h.callbackSecret, body, c.GetHeader("Signature")) {
		logrus.Warn("webhook signature mismatch, ignoring")
		monitoring.ObserveWebhook("bad_signature")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logrus.WithError(err).Warn("failed to parse webhook payload")
		monitoring.ObserveWebhook("malformed")
		return
	}
	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		logrus.WithField("order_id", payload.OrderID).Warn("webhook carries malformed order id")
		monitoring.ObserveWebhook("malformed")
		return
	}

	outcome := models.PaymentOutcomeFailed
	if payload.Status == "SUCCESS" || payload.Status == "succeeded" {
		outcome = models.PaymentOutcomeSucceeded
	}

	notice := services.PaymentNotice{
		Provider:        h.providerName,
		ProviderEventID: payload.EventID,
		OrderID:         orderID,
		Outcome:         outcome,
		Payload:         string(body),
	}
	if err := h.orders.ProcessPaymentEvent(c.Request.Context(), notice); err != nil {
		logrus.WithError(err).WithField("order_id", orderID).
			Error("failed to process payment event")
		monitoring.ObserveWebhook("error")
	}
}
