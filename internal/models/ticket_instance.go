package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketInstanceStatus string

const (
	TicketInstanceStatusIssued    TicketInstanceStatus = "issued"
	TicketInstanceStatusUsed      TicketInstanceStatus = "used"
	TicketInstanceStatusCancelled TicketInstanceStatus = "cancelled"
)

// TicketInstance is one admission unit of a paid order line. For a paid
// order the number of non-deleted instances per line item equals the line's
// quantity, which the unique (order_line_item_id, sequence_no) index lets
// fulfillment enforce idempotently.
type TicketInstance struct {
	gorm.Model
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderLineItemID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ticket_instances_line_seq"`
	SequenceNo      int       `gorm:"not null;uniqueIndex:idx_ticket_instances_line_seq"`
	// VerificationTokenHash is the sha256 of the token embedded in check-in
	// payloads; the raw token is never persisted.
	VerificationTokenHash string               `gorm:"not null"`
	Status                TicketInstanceStatus `gorm:"not null;default:'issued';index"`
	OwnerUserID           *uuid.UUID           `gorm:"type:uuid"`
}

func (instance *TicketInstance) BeforeCreate(tx *gorm.DB) (err error) {
	if instance.ID == uuid.Nil {
		instance.ID = uuid.New()
	}
	return
}
