package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductCategoryUpgrade marks add-ons that may only be bought alongside a
// companion ticket from RequiredTicketTypes within the same cart.
const ProductCategoryUpgrade = "upgrade"

type Product struct {
	gorm.Model
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	Name          string          `gorm:"not null"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency      string          `gorm:"not null;default:'IDR'"`
	Category      string          `gorm:"not null;default:'general'"`
	CapacityTotal *int            `gorm:"check:capacity_total IS NULL OR capacity_total >= 0"`
	SalesStart    *time.Time
	SalesEnd      *time.Time
	MaxPerOrder   int `gorm:"not null;default:10"`
	EventID       uuid.UUID
	Event         Event
	Variants      []ProductVariant
	// RequiredTicketTypes is only consulted for the upgrade category.
	RequiredTicketTypes []TicketType `gorm:"many2many:product_required_ticket_types;"`
}

func (product *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return
}

type ProductVariant struct {
	gorm.Model
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string    `gorm:"not null"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Price and CapacityTotal override the parent product when set.
	Price         *decimal.Decimal `gorm:"type:numeric(12,2)"`
	CapacityTotal *int             `gorm:"check:capacity_total IS NULL OR capacity_total >= 0"`
}

func (variant *ProductVariant) BeforeCreate(tx *gorm.DB) (err error) {
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	return
}
