package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/aldenvr/stagepass/internal/models"
)

type InventoryRepository struct {
	*Store
}

func NewInventoryRepository(store *Store) *InventoryRepository {
	return &InventoryRepository{Store: store}
}

// ReservedQuantity sums line-item quantities for the unit across orders in a
// capacity-holding status (pending or paid). Run inside the reservation
// transaction it reads through the unit row lock, so concurrent checkouts
// cannot both observe the same free capacity.
func (r *InventoryRepository) ReservedQuantity(ctx context.Context, ref models.UnitRef) (int, error) {
	query := r.conn(ctx).
		Model(&models.OrderLineItem{}).
		Joins("JOIN orders ON orders.id = order_line_items.order_id").
		Where("orders.status IN ?", []models.OrderStatus{models.OrderStatusPending, models.OrderStatusPaid}).
		Where("orders.deleted_at IS NULL")
	query = scopeToUnit(query, ref)

	var total int
	err := query.Select("COALESCE(SUM(order_line_items.quantity), 0)").Scan(&total).Error
	return total, err
}

// IssuedQuantity counts live ticket instances attached to the unit through
// paid orders. Fulfillment uses it for the overbooking failsafe, where the
// count includes rows created earlier in the same transaction.
func (r *InventoryRepository) IssuedQuantity(ctx context.Context, ref models.UnitRef) (int, error) {
	query := r.conn(ctx).
		Model(&models.TicketInstance{}).
		Joins("JOIN order_line_items ON order_line_items.id = ticket_instances.order_line_item_id").
		Joins("JOIN orders ON orders.id = order_line_items.order_id").
		Where("orders.status = ?", models.OrderStatusPaid).
		Where("ticket_instances.status <> ?", models.TicketInstanceStatusCancelled)
	query = scopeToUnit(query, ref)

	var total int64
	err := query.Count(&total).Error
	return int(total), err
}

// scopeToUnit narrows a line-item join to one unit ref. Variant refs track
// their own capacity; a bare product ref covers all of its variants.
func scopeToUnit(query *gorm.DB, ref models.UnitRef) *gorm.DB {
	switch {
	case ref.Kind == models.UnitKindTicket:
		return query.Where("order_line_items.ticket_type_id = ?", ref.ID)
	case ref.VariantID != nil:
		return query.Where("order_line_items.product_variant_id = ?", *ref.VariantID)
	default:
		return query.Where("order_line_items.product_id = ?", ref.ID)
	}
}
