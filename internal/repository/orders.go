package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aldenvr/stagepass/internal/models"
)

type OrderRepository struct {
	*Store
}

func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{Store: store}
}

// Create persists the order together with its line items.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.conn(ctx).Create(order).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.conn(ctx).Preload("Lines").Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetWithLock loads the order under FOR UPDATE; fulfillment and the webhook
// path serialize on this lock per order.
func (r *OrderRepository) GetWithLock(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}
	if err := r.conn(ctx).Where("order_id = ?", order.ID).Find(&order.Lines).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetByLookupHash(ctx context.Context, hash string) (*models.Order, error) {
	var order models.Order
	err := r.conn(ctx).
		Preload("Lines").
		Preload("Event").
		Where("lookup_token_hash = ?", hash).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// UpdateStatus performs a guarded transition; matching zero rows means the
// order left `from` concurrently and the caller must not assume the edge was
// taken.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error {
	result := r.conn(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrInvalidStatusTransition
	}
	return nil
}

func (r *OrderRepository) MarkRefundDue(ctx context.Context, id uuid.UUID) error {
	return r.conn(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("refund_due", true).Error
}

// ExpireOlderThan sweeps pending orders whose reservation TTL has lapsed.
// Expired orders stop holding capacity by the ledger's definition.
func (r *OrderRepository) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.conn(ctx).
		Model(&models.Order{}).
		Where("status = ? AND expires_at < ?", models.OrderStatusPending, cutoff).
		Update("status", models.OrderStatusExpired)
	return result.RowsAffected, result.Error
}
