package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/aldenvr/stagepass/internal/helpers"
	"github.com/aldenvr/stagepass/internal/models"
)

var timeNow = time.Now

// TicketHandler serves QR generation and gate check-in. The same secret
// signs both the JWT sessions and the ticket QR payloads.
type TicketHandler struct {
	secret string
}

func NewTicketHandler(secret string) *TicketHandler {
	return &TicketHandler{secret: secret}
}

func (h *TicketHandler) generateTicketQRData(ticket *models.TicketInstance, eventID uuid.UUID) string {
	signature := generateTicketSignature(ticket.ID, ticket.OrderLineItemID, h.secret)
	return fmt.Sprintf("ticket:%s;event:%s;signature:%s",
		ticket.ID.String(),
		eventID.String(),
		signature,
	)
}

func generateTicketSignature(ticketID, lineItemID uuid.UUID, secretKey string) string {
	data := fmt.Sprintf("%s:%s", ticketID.String(), lineItemID.String())
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

func extractTicketIDFromQRData(qrData string) (uuid.UUID, error) {
	parts := strings.Split(qrData, ";")
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "ticket:") || !strings.HasPrefix(parts[2], "signature:") {
		return uuid.Nil, fmt.Errorf("invalid QR data format")
	}
	return uuid.Parse(strings.TrimPrefix(parts[0], "ticket:"))
}

func (h *TicketHandler) validateTicketQRSignature(ticket *models.TicketInstance, qrData string) bool {
	parts := strings.Split(qrData, ";")
	if len(parts) != 3 || !strings.HasPrefix(parts[2], "signature:") {
		return false
	}

	signature := strings.TrimPrefix(parts[2], "signature:")
	expectedSignature := generateTicketSignature(ticket.ID, ticket.OrderLineItemID, h.secret)
	return hmac.Equal([]byte(expectedSignature), []byte(signature))
}

// ticketContext resolves a ticket instance together with its line item,
// order, and event.
func ticketContext(db *gorm.DB, ticketID uuid.UUID) (*models.TicketInstance, *models.Order, error) {
	var ticket models.TicketInstance
	if err := db.First(&ticket, "id = ?", ticketID).Error; err != nil {
		return nil, nil, err
	}

	var line models.OrderLineItem
	if err := db.First(&line, "id = ?", ticket.OrderLineItemID).Error; err != nil {
		return nil, nil, err
	}

	var order models.Order
	if err := db.Preload("Event").First(&order, "id = ?", line.OrderID).Error; err != nil {
		return nil, nil, err
	}
	return &ticket, &order, nil
}

func (h *TicketHandler) GenerateTicketQR(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	ticketID, err := uuid.Parse(c.Param("ticketId"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket ID")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found")
		return
	}
	gormDB := db.(*gorm.DB)

	ticket, order, err := ticketContext(gormDB, ticketID)
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found")
		return
	}

	if ticket.OwnerUserID == nil || *ticket.OwnerUserID != userID {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to generate QR code for this ticket")
		return
	}

	if !order.Event.TicketsReleased(timeNow()) {
		helpers.RespondWithError(c, http.StatusForbidden, "Tickets for this event have not been released yet")
		return
	}

	if ticket.Status != models.TicketInstanceStatusIssued {
		helpers.RespondWithError(c, http.StatusForbidden, "Ticket is not valid for entry")
		return
	}

	qrData := h.generateTicketQRData(ticket, order.EventID)

	qrImage, err := qrcode.Encode(qrData, qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	c.Data(http.StatusOK, "image/png", qrImage)
}

func (h *TicketHandler) CheckInTicket(c *gin.Context) {
	actor, ok := helpers.ActorFromContext(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found")
		return
	}
	gormDB := db.(*gorm.DB)

	var checkInRequest struct {
		QRData string `json:"qr_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&checkInRequest); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ticketID, err := extractTicketIDFromQRData(checkInRequest.QRData)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid QR code format")
		return
	}

	ticket, order, err := ticketContext(gormDB, ticketID)
	if err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found")
		return
	}

	if !h.validateTicketQRSignature(ticket, checkInRequest.QRData) {
		helpers.RespondWithError(c, http.StatusForbidden, "Invalid QR code signature")
		return
	}

	if !actor.Can(gormDB, helpers.ActionCheckIn, order.EventID) {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to check in tickets for this event")
		return
	}

	if order.Status != models.OrderStatusPaid {
		helpers.RespondWithError(c, http.StatusForbidden, "Order is not paid")
		return
	}

	result := gormDB.Model(&models.TicketInstance{}).
		Where("id = ? AND status = ?", ticket.ID, models.TicketInstanceStatusIssued).
		Update("status", models.TicketInstanceStatusUsed)
	if result.Error != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to check in ticket")
		return
	}
	if result.RowsAffected == 0 {
		helpers.RespondWithError(c, http.StatusForbidden, "Ticket already used or cancelled")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ticket checked in successfully",
		"ticket": gin.H{
			"id":          ticket.ID,
			"event_title": order.Event.Title,
		},
	})
}
