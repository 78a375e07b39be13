package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderLineItem struct {
	gorm.Model
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Exactly one of TicketTypeID and ProductID is set.
	TicketTypeID     *uuid.UUID      `gorm:"type:uuid;index;check:line_ref_xor,(ticket_type_id IS NULL) <> (product_id IS NULL)"`
	ProductID        *uuid.UUID      `gorm:"type:uuid;index"`
	ProductVariantID *uuid.UUID      `gorm:"type:uuid"`
	Quantity         int             `gorm:"not null;check:quantity > 0"`
	UnitPrice        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	LineTotal        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (line *OrderLineItem) BeforeCreate(tx *gorm.DB) (err error) {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	return
}

// UnitRef resolves the line's sellable-unit reference.
func (line *OrderLineItem) UnitRef() UnitRef {
	if line.TicketTypeID != nil {
		return UnitRef{Kind: UnitKindTicket, ID: *line.TicketTypeID}
	}
	return UnitRef{Kind: UnitKindProduct, ID: *line.ProductID, VariantID: line.ProductVariantID}
}
