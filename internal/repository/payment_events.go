package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/aldenvr/stagepass/internal/models"
)

// PaymentEventRepository is write-once by construction: it exposes Append
// and lookups only, so no caller can mutate or delete a recorded event.
type PaymentEventRepository struct {
	*Store
}

func NewPaymentEventRepository(store *Store) *PaymentEventRepository {
	return &PaymentEventRepository{Store: store}
}

// Append inserts the event; a (provider, provider_event_id) collision means
// a retried delivery and surfaces as ErrDuplicatePaymentEvent.
func (r *PaymentEventRepository) Append(ctx context.Context, event *models.PaymentEvent) error {
	err := r.conn(ctx).Create(event).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.ErrDuplicatePaymentEvent
	}
	return err
}

func (r *PaymentEventRepository) FindByProviderEvent(ctx context.Context, provider, providerEventID string) (*models.PaymentEvent, error) {
	var event models.PaymentEvent
	err := r.conn(ctx).
		Where("provider = ? AND provider_event_id = ?", provider, providerEventID).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}
