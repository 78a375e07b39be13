package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	gorm.Model
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Title       string    `gorm:"not null"`
	Description string
	StartTime   time.Time `gorm:"not null"`
	EndTime     time.Time `gorm:"not null"`
	Location    string
	Currency    string `gorm:"not null;default:'IDR'"`
	// TicketReleaseAt gates when ticket verification payloads become visible
	// through the public order lookup. Nil means immediately after fulfillment.
	TicketReleaseAt *time.Time
	User            User
	UserID          uuid.UUID
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}

// TicketsReleased reports whether verification payloads may be shown at t.
func (event *Event) TicketsReleased(t time.Time) bool {
	return event.TicketReleaseAt == nil || !t.Before(*event.TicketReleaseAt)
}
