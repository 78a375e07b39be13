package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TicketType struct {
	gorm.Model
	ID       uuid.UUID       `gorm:"type:uuid;primary_key"`
	Name     string          `gorm:"not null"`
	Price    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency string          `gorm:"not null;default:'IDR'"`
	// CapacityTotal is nil for unlimited inventory, otherwise >= 0.
	CapacityTotal *int `gorm:"check:capacity_total IS NULL OR capacity_total >= 0"`
	SalesStart    *time.Time
	SalesEnd      *time.Time
	MaxPerOrder   int `gorm:"not null;default:10"`
	EventID       uuid.UUID
	Event         Event
}

func (ticketType *TicketType) BeforeCreate(tx *gorm.DB) (err error) {
	if ticketType.ID == uuid.Nil {
		ticketType.ID = uuid.New()
	}
	return
}
