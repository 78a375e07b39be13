package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusExpired   OrderStatus = "expired"
)

// Terminal reports whether no further transition may leave this status.
func (s OrderStatus) Terminal() bool {
	return s != OrderStatusPending
}

// CanTransition allows exactly pending -> {paid, failed, cancelled, expired}.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if s != OrderStatusPending || to == OrderStatusPending {
		return false
	}
	switch to {
	case OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled, OrderStatusExpired:
		return true
	}
	return false
}

// HoldsCapacity reports whether orders in this status count against a
// sellable unit's available pool.
func (s OrderStatus) HoldsCapacity() bool {
	return s == OrderStatusPending || s == OrderStatusPaid
}

type Order struct {
	gorm.Model
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	EventID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Event    Event
	Email    string          `gorm:"not null"`
	UserID   *uuid.UUID      `gorm:"type:uuid"`
	Status   OrderStatus     `gorm:"not null;default:'pending';index"`
	Total    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency string          `gorm:"not null"`
	// LookupTokenHash is the sha256 of the public lookup token; the raw token
	// is handed to the buyer once and never stored.
	LookupTokenHash string    `gorm:"not null;uniqueIndex"`
	RefundDue       bool      `gorm:"not null;default:false"`
	ExpiresAt       time.Time `gorm:"not null;index"`
	Lines           []OrderLineItem

	// LookupToken carries the raw token back to the creating caller only.
	LookupToken string `gorm:"-" json:"-"`
}

func (order *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return
}
