package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UnitKind string

const (
	UnitKindTicket  UnitKind = "ticket"
	UnitKindProduct UnitKind = "product"
)

// UnitRef identifies one inventory-bearing row: a ticket type, a product, or
// a product variant. Refs sort by ID so callers can lock overlapping unit
// sets in the same order everywhere.
type UnitRef struct {
	Kind      UnitKind
	ID        uuid.UUID
	VariantID *uuid.UUID
}

// Key returns a stable identity usable for sorting and de-duplication.
func (r UnitRef) Key() string {
	if r.VariantID != nil {
		return r.ID.String() + "/" + r.VariantID.String()
	}
	return r.ID.String()
}

// SellableUnit is the catalog view the checkout core works against,
// regardless of whether the row behind it is a ticket type or a product.
type SellableUnit struct {
	Kind          UnitKind
	ID            uuid.UUID
	VariantID     *uuid.UUID
	EventID       uuid.UUID
	Name          string
	Price         decimal.Decimal
	Currency      string
	CapacityTotal *int
	SalesStart    *time.Time
	SalesEnd      *time.Time
	MaxPerOrder   int
	Category      string
	// RequiredTicketTypeIDs is non-empty only for upgrade products.
	RequiredTicketTypeIDs []uuid.UUID
}

func (u *SellableUnit) Ref() UnitRef {
	return UnitRef{Kind: u.Kind, ID: u.ID, VariantID: u.VariantID}
}

func (u *SellableUnit) Unlimited() bool {
	return u.CapacityTotal == nil
}

// OnSaleAt checks the sales window; an absent bound is unbounded on that side.
func (u *SellableUnit) OnSaleAt(t time.Time) (started, ended bool) {
	started = u.SalesStart == nil || !t.Before(*u.SalesStart)
	ended = u.SalesEnd != nil && t.After(*u.SalesEnd)
	return started, ended
}
