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

type ProductVariantRequest struct {
	Name          string           `json:"name" binding:"required"`
	Price         *decimal.Decimal `json:"price"`
	CapacityTotal *int             `json:"capacity_total"`
}

type ProductRequest struct {
	Name          string                  `json:"name" binding:"required"`
	Price         decimal.Decimal         `json:"price"`
	Currency      string                  `json:"currency"`
	Category      string                  `json:"category"`
	CapacityTotal *int                    `json:"capacity_total"`
	SalesStart    *time.Time              `json:"sales_start"`
	SalesEnd      *time.Time              `json:"sales_end"`
	MaxPerOrder   int                     `json:"max_per_order"`
	EventID       uuid.UUID               `json:"event_id" binding:"required"`
	Variants      []ProductVariantRequest `json:"variants"`
	// RequiredTicketTypeIDs is only honored for upgrade products.
	RequiredTicketTypeIDs []uuid.UUID `json:"required_ticket_type_ids"`
}

func CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
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

	product := models.Product{
		ID:            uuid.New(),
		Name:          req.Name,
		Price:         req.Price,
		CapacityTotal: req.CapacityTotal,
		SalesStart:    req.SalesStart,
		SalesEnd:      req.SalesEnd,
		EventID:       req.EventID,
	}
	if req.Currency != "" {
		product.Currency = req.Currency
	}
	if req.Category != "" {
		product.Category = req.Category
	}
	if req.MaxPerOrder > 0 {
		product.MaxPerOrder = req.MaxPerOrder
	}

	for _, variant := range req.Variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			ID:            uuid.New(),
			Name:          variant.Name,
			Price:         variant.Price,
			CapacityTotal: variant.CapacityTotal,
		})
	}

	if product.Category == models.ProductCategoryUpgrade {
		var requiredTypes []models.TicketType
		if len(req.RequiredTicketTypeIDs) > 0 {
			if err := gormDB.Where("id IN ? AND event_id = ?", req.RequiredTicketTypeIDs, req.EventID).Find(&requiredTypes).Error; err != nil {
				helpers.RespondWithError(c, http.StatusInternalServerError, "Error resolving required ticket types.")
				return
			}
		}
		if len(requiredTypes) != len(req.RequiredTicketTypeIDs) {
			helpers.RespondWithError(c, http.StatusBadRequest, "Required ticket types must belong to the same event.")
			return
		}
		product.RequiredTicketTypes = requiredTypes
	}

	if err := gormDB.Create(&product).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create product.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Product created successfully.",
		"product_id": product.ID,
	})
}

func ListProducts(c *gin.Context) {
	eventID := c.Param("id")

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var products []models.Product
	err := gormDB.Preload("Variants").Preload("RequiredTicketTypes").
		Where("event_id = ?", eventID).Order("created_at").Find(&products).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving products.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

func DeleteProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid product ID.")
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

	var product models.Product
	if err := gormDB.Where("id = ?", productID).First(&product).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Product not found.")
		return
	}

	if !actor.Can(gormDB, helpers.ActionManageEvent, product.EventID) {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to delete this product.")
		return
	}

	if err := gormDB.Delete(&product).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete product.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully."})
}
