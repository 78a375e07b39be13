package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentEvent is the append-only record of an inbound provider
// notification. The unique (provider, provider_event_id) pair is the
// idempotency guard against retried webhook deliveries. Rows are never
// updated or deleted; the store interface exposes no way to do either.
type PaymentEvent struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	Provider        string    `gorm:"not null;uniqueIndex:idx_payment_events_provider_event"`
	ProviderEventID string    `gorm:"not null;uniqueIndex:idx_payment_events_provider_event"`
	OrderID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Outcome         string    `gorm:"not null"`
	Payload         string    `gorm:"type:jsonb"`
	CreatedAt       time.Time
}

func (event *PaymentEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}

const (
	PaymentOutcomeSucceeded = "succeeded"
	PaymentOutcomeFailed    = "failed"
)
