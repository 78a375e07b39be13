package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aldenvr/stagepass/internal/helpers"
	"github.com/aldenvr/stagepass/internal/models"
)

type TicketTypeRequest struct {
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	// CapacityTotal null means unlimited.
	CapacityTotal *int       `json:"capacity_total"`
	SalesStart    *time.Time `json:"sales_start"`
	SalesEnd      *time.Time `json:"sales_end"`
	MaxPerOrder   int        `json:"max_per_order"`
	EventID       uuid.UUID  `json:"event_id" binding:"required"`
}

func CreateTicketType(c *gin.Context) {
	var req TicketTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if req.CapacityTotal != nil && *req.CapacityTotal < 0 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Capacity must not be negative.")
		return
	}

	actor, ok := helpers.ActorFromContext(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	if !actor.Can(gormDB, helpers.ActionManageEvent, req.EventID) {
		helpers.RespondWithError(c, http.StatusForbidden, "Event not found or you don't have permission.")
		return
	}

	ticketType := models.TicketType{
		ID:            uuid.New(),
		Name:          req.Name,
		Price:         req.Price,
		CapacityTotal: req.CapacityTotal,
		SalesStart:    req.SalesStart,
		SalesEnd:      req.SalesEnd,
		EventID:       req.EventID,
	}
	if req.Currency != "" {
		ticketType.Currency = req.Currency
	}
	if req.MaxPerOrder > 0 {
		ticketType.MaxPerOrder = req.MaxPerOrder
	}

	if err := gormDB.Create(&ticketType).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create ticket type.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":        "Ticket type created successfully.",
		"ticket_type_id": ticketType.ID,
	})
}

func ListTicketTypes(c *gin.Context) {
	eventID := c.Param("id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var ticketTypes []models.TicketType
	if err := gormDB.Where("event_id = ?", eventID).Order("created_at").Find(&ticketTypes).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving ticket types.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ticket_types": ticketTypes})
}

func UpdateTicketType(c *gin.Context) {
	ticketTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket type ID.")
		return
	}

	actor, ok := helpers.ActorFromContext(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	var req TicketTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}
	if req.CapacityTotal != nil && *req.CapacityTotal < 0 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Capacity must not be negative.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var ticketType models.TicketType
	if err := gormDB.Where("id = ?", ticketTypeID).First(&ticketType).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket type not found.")
		return
	}

	if !actor.Can(gormDB, helpers.ActionManageEvent, ticketType.EventID) {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to update this ticket type.")
		return
	}

	ticketType.Name = req.Name
	ticketType.Price = req.Price
	ticketType.CapacityTotal = req.CapacityTotal
	ticketType.SalesStart = req.SalesStart
	ticketType.SalesEnd = req.SalesEnd
	if req.Currency != "" {
		ticketType.Currency = req.Currency
	}
	if req.MaxPerOrder > 0 {
		ticketType.MaxPerOrder = req.MaxPerOrder
	}

	if err := gormDB.Save(&ticketType).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update ticket type.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ticket type updated successfully."})
}

func DeleteTicketType(c *gin.Context) {
	ticketTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket type ID.")
		return
	}

	actor, ok := helpers.ActorFromContext(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var ticketType models.TicketType
	if err := gormDB.Where("id = ?", ticketTypeID).First(&ticketType).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket type not found.")
		return
	}

	if !actor.Can(gormDB, helpers.ActionManageEvent, ticketType.EventID) {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to delete this ticket type.")
		return
	}

	if err := gormDB.Delete(&ticketType).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete ticket type.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ticket type deleted successfully."})
}
