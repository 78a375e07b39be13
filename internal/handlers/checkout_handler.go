package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aldenvr/stagepass/internal/helpers"
	"github.com/aldenvr/stagepass/internal/models"
	"github.com/aldenvr/stagepass/internal/monitoring"
	"github.com/aldenvr/stagepass/internal/payment"
	"github.com/aldenvr/stagepass/internal/services"
)

type CheckoutRequest struct {
	EventID *uuid.UUID                 `json:"event_id"`
	Email   string                     `json:"email"`
	Items   []services.CartItemRequest `json:"items"`
}

type checkoutLineError struct {
	Index   int    `json:"index"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CheckoutHandler struct {
	catalog      services.CatalogRepository
	carts        *services.CartService
	reservations *services.ReservationService
	orders       *services.OrderService
	fulfillment  *services.FulfillmentService
	provider     payment.CheckoutProvider
}

func NewCheckoutHandler(catalog services.CatalogRepository, carts *services.CartService, reservations *services.ReservationService, orders *services.OrderService, fulfillment *services.FulfillmentService, provider payment.CheckoutProvider) *CheckoutHandler {
	return &CheckoutHandler{
		catalog:      catalog,
		carts:        carts,
		reservations: reservations,
		orders:       orders,
		fulfillment:  fulfillment,
		provider:     provider,
	}
}

// Create is the buyer-facing checkout entrypoint: it validates the cart,
// reserves capacity as a pending order, and hands back a payment URL. The
// field checks are explicit rather than binding tags because each failure
// has its own stable code.
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if req.EventID == nil {
		helpers.RespondWithCode(c, http.StatusBadRequest, models.CodeMissingEventID, "event_id is required.")
		return
	}
	if req.Email == "" {
		helpers.RespondWithCode(c, http.StatusBadRequest, models.CodeMissingEmail, "email is required.")
		return
	}
	if len(req.Items) == 0 {
		helpers.RespondWithCode(c, http.StatusBadRequest, models.CodeNoItems, "At least one item is required.")
		return
	}

	input := services.ReserveInput{
		EventID: *req.EventID,
		Email:   req.Email,
		Items:   req.Items,
	}
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(uuid.UUID); ok {
			input.UserID = &id
		}
	}

	order, rejected, err := h.reservations.Reserve(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEventNotFound):
			monitoring.ObserveCheckout("event_not_found")
			helpers.RespondWithCode(c, http.StatusNotFound, models.CodeEventNotFound, "Event not found.")
		case errors.Is(err, models.ErrUnitUnavailable):
			monitoring.ObserveCheckout("contended")
			helpers.RespondWithCode(c, http.StatusServiceUnavailable, models.CodeTemporarilyUnavailable, "High demand right now, please retry.")
		case errors.Is(err, models.ErrCartRejected):
			monitoring.ObserveCheckout("rejected")
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Cart failed validation.",
				"lines": rejectedLines(rejected),
			})
		default:
			monitoring.ObserveCheckout("error")
			logrus.WithError(err).Error("checkout failed")
			helpers.RespondWithError(c, http.StatusInternalServerError, "Checkout failed.")
		}
		return
	}

	if order.Total.IsZero() {
		h.settleFreeOrder(c, order)
		return
	}

	session, err := h.provider.CreateCheckoutSession(c.Request.Context(), order)
	if err != nil {
		// The pending order exists and keeps its hold; the buyer can retry
		// payment through the lookup token before it expires.
		monitoring.ObserveCheckout("provider_error")
		logrus.WithError(err).WithField("order_id", order.ID).Error("failed to create payment session")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":        "Payment provider unavailable.",
			"order_id":     order.ID,
			"status":       order.Status,
			"lookup_token": order.LookupToken,
			"expires_at":   order.ExpiresAt.Format(time.RFC3339),
		})
		return
	}

	monitoring.ObserveCheckout("ok")
	c.JSON(http.StatusCreated, gin.H{
		"order_id":     order.ID,
		"status":       order.Status,
		"total":        order.Total,
		"currency":     order.Currency,
		"payment_url":  session.RedirectURL,
		"lookup_token": order.LookupToken,
		"expires_at":   order.ExpiresAt.Format(time.RFC3339),
	})
}

// settleFreeOrder bypasses the payment provider for zero-amount orders and
// fulfills them inline.
func (h *CheckoutHandler) settleFreeOrder(c *gin.Context, order *models.Order) {
	ctx := c.Request.Context()
	if err := h.orders.MarkPaid(ctx, order.ID); err != nil {
		monitoring.ObserveCheckout("error")
		logrus.WithError(err).WithField("order_id", order.ID).Error("failed to settle free order")
		helpers.RespondWithError(c, http.StatusInternalServerError, "Checkout failed.")
		return
	}
	if err := h.fulfillment.Fulfill(ctx, order.ID); err != nil {
		// The order is paid; the queue consumer retries issuance.
		logrus.WithError(err).WithField("order_id", order.ID).Error("inline fulfillment failed")
	}

	monitoring.ObserveCheckout("ok")
	c.JSON(http.StatusCreated, gin.H{
		"order_id":     order.ID,
		"status":       models.OrderStatusPaid,
		"total":        order.Total,
		"currency":     order.Currency,
		"lookup_token": order.LookupToken,
		"expires_at":   order.ExpiresAt.Format(time.RFC3339),
	})
}

// Validate prices and checks a cart without reserving anything. Unlike
// Create, an empty item list is a valid zero-total cart here.
func (h *CheckoutHandler) Validate(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if req.EventID == nil {
		helpers.RespondWithCode(c, http.StatusBadRequest, models.CodeMissingEventID, "event_id is required.")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.catalog.GetEvent(ctx, *req.EventID); err != nil {
		if errors.Is(err, models.ErrEventNotFound) {
			helpers.RespondWithCode(c, http.StatusNotFound, models.CodeEventNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Validation failed.")
		return
	}

	cart, err := h.carts.Validate(ctx, *req.EventID, req.Items)
	if err != nil {
		logrus.WithError(err).Error("cart validation failed")
		helpers.RespondWithError(c, http.StatusInternalServerError, "Validation failed.")
		return
	}

	lines := make([]gin.H, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		entry := gin.H{
			"quantity":   line.Item.Quantity,
			"unit_price": line.UnitPrice,
			"line_total": line.LineTotal,
		}
		if line.Code != "" {
			entry["code"] = line.Code
			entry["message"] = line.Message
		}
		lines = append(lines, entry)
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":    cart.Valid,
		"total":    cart.Total,
		"currency": cart.Currency,
		"lines":    lines,
	})
}

func rejectedLines(cart *services.CartResult) []checkoutLineError {
	out := make([]checkoutLineError, 0)
	if cart == nil {
		return out
	}
	for i, line := range cart.Lines {
		if line.Code == "" {
			continue
		}
		out = append(out, checkoutLineError{Index: i, Code: line.Code, Message: line.Message})
	}
	return out
}
