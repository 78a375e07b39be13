package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aldenvr/stagepass/internal/models"
)

// TxRunner scopes a function to one database transaction; repository calls
// made with the inner context join it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type CatalogRepository interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ResolveUnit(ctx context.Context, eventID, unitID uuid.UUID, variantID *uuid.UUID) (*models.SellableUnit, error)
	// LockUnits takes exclusive non-blocking row locks in a globally
	// consistent order; models.ErrUnitUnavailable means fail fast and retry.
	LockUnits(ctx context.Context, refs []models.UnitRef) error
}

type InventoryRepository interface {
	ReservedQuantity(ctx context.Context, ref models.UnitRef) (int, error)
	IssuedQuantity(ctx context.Context, ref models.UnitRef) (int, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetWithLock(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByLookupHash(ctx context.Context, hash string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error
	MarkRefundDue(ctx context.Context, id uuid.UUID) error
	ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PaymentEventLog is append-only by interface design: there is no update or
// delete to call.
type PaymentEventLog interface {
	Append(ctx context.Context, event *models.PaymentEvent) error
	FindByProviderEvent(ctx context.Context, provider, providerEventID string) (*models.PaymentEvent, error)
}

type TicketInstanceRepository interface {
	MaxSequenceNo(ctx context.Context, lineItemID uuid.UUID) (int, error)
	CreateBatch(ctx context.Context, instances []*models.TicketInstance) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*models.TicketInstance, error)
}

// FulfillmentDispatcher is the explicit paid->fulfill edge: the order state
// machine publishes through it instead of relying on storage-side triggers.
type FulfillmentDispatcher interface {
	Dispatch(ctx context.Context, orderID uuid.UUID) error
}
