package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/aldenvr/stagepass/internal/helpers"
	"github.com/aldenvr/stagepass/internal/models"
	"github.com/aldenvr/stagepass/internal/services"
)

type OrderHandler struct {
	orders *services.OrderService
	now    func() time.Time
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders, now: time.Now}
}

// Lookup resolves an order by its opaque token. The token is the only
// credential; no login is required, so responses never include anything
// beyond what the buyer was already given at checkout.
func (h *OrderHandler) Lookup(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "token query parameter is required.")
		return
	}

	lookup, err := h.orders.LookupByToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			helpers.RespondWithCode(c, http.StatusNotFound, models.CodeNotFound, "Order not found.")
			return
		}
		logrus.WithError(err).Error("order lookup failed")
		helpers.RespondWithError(c, http.StatusInternalServerError, "Lookup failed.")
		return
	}

	order := lookup.Order
	released := order.Event.TicketsReleased(h.now())

	lines := make([]gin.H, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, gin.H{
			"quantity":   line.Quantity,
			"unit_price": line.UnitPrice,
			"line_total": line.LineTotal,
		})
	}

	tickets := make([]gin.H, 0, len(lookup.Tickets))
	for _, ticket := range lookup.Tickets {
		entry := gin.H{
			"id":     ticket.ID,
			"status": ticket.Status,
		}
		// Verification details stay hidden until the event releases tickets.
		entry["released"] = released
		tickets = append(tickets, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":   order.ID,
		"status":     order.Status,
		"total":      order.Total,
		"currency":   order.Currency,
		"refund_due": order.RefundDue,
		"expires_at": order.ExpiresAt.Format(time.RFC3339),
		"event": gin.H{
			"id":    order.Event.ID,
			"title": order.Event.Title,
		},
		"lines":   lines,
		"tickets": tickets,
	})
}
