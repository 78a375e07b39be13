package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aldenvr/stagepass/internal/models"
)

type TicketInstanceRepository struct {
	*Store
}

func NewTicketInstanceRepository(store *Store) *TicketInstanceRepository {
	return &TicketInstanceRepository{Store: store}
}

// MaxSequenceNo returns the highest sequence number on a line item, zero
// when no instances exist yet. Cancelled instances are included: their
// (order_line_item_id, sequence_no) slot stays occupied, so issuance must
// continue above them rather than re-use the number.
func (r *TicketInstanceRepository) MaxSequenceNo(ctx context.Context, lineItemID uuid.UUID) (int, error) {
	var max int
	err := r.conn(ctx).
		Model(&models.TicketInstance{}).
		Where("order_line_item_id = ?", lineItemID).
		Select("COALESCE(MAX(sequence_no), 0)").
		Scan(&max).Error
	return max, err
}

// CreateBatch inserts instances with ON CONFLICT DO NOTHING on the
// (order_line_item_id, sequence_no) index, which makes re-invoked
// fulfillment a pure no-op once the quantity invariant holds.
func (r *TicketInstanceRepository) CreateBatch(ctx context.Context, instances []*models.TicketInstance) error {
	if len(instances) == 0 {
		return nil
	}
	return r.conn(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&instances).Error
}

func (r *TicketInstanceRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*models.TicketInstance, error) {
	var instances []*models.TicketInstance
	err := r.conn(ctx).
		Where("order_line_item_id IN (?)",
			r.conn(ctx).Model(&models.OrderLineItem{}).Select("id").Where("order_id = ?", orderID)).
		Order("order_line_item_id, sequence_no").
		Find(&instances).Error
	return instances, err
}

func (r *TicketInstanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TicketInstance, error) {
	var instance models.TicketInstance
	err := r.conn(ctx).Where("id = ?", id).First(&instance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrTicketNotFound
		}
		return nil, err
	}
	return &instance, nil
}

// MarkUsed flips issued -> used; a zero-row update means the ticket was
// already used or cancelled.
func (r *TicketInstanceRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	result := r.conn(ctx).
		Model(&models.TicketInstance{}).
		Where("id = ? AND status = ?", id, models.TicketInstanceStatusIssued).
		Update("status", models.TicketInstanceStatusUsed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrTicketNotIssued
	}
	return nil
}
