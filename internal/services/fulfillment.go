package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aldenvr/stagepass/internal/helpers"
	"github.com/aldenvr/stagepass/internal/models"
	"github.com/aldenvr/stagepass/internal/monitoring"
)

// FulfillmentService issues ticket instances for paid orders. Fulfill can be
// re-run any number of times against the same order; the per-line sequence
// numbers make every retry converge on exactly the ordered quantity.
type FulfillmentService struct {
	tx        TxRunner
	catalog   CatalogRepository
	orders    OrderRepository
	instances TicketInstanceRepository
	inventory InventoryRepository
}

func NewFulfillmentService(tx TxRunner, catalog CatalogRepository, orders OrderRepository, instances TicketInstanceRepository, inventory InventoryRepository) *FulfillmentService {
	return &FulfillmentService{
		tx:        tx,
		catalog:   catalog,
		orders:    orders,
		instances: instances,
		inventory: inventory,
	}
}

// Fulfill issues the missing ticket instances for a paid order, then
// re-counts issuance per unit inside the same transaction. If any unit ended
// up above capacity the issuance transaction rolls back and a compensating
// transaction cancels the order and flags it for refund. The capacity check
// only runs when this invocation actually issued something: a redelivered
// fulfillment for an already-complete order must stay a pure no-op, even if
// capacity was lowered after the tickets went out.
func (s *FulfillmentService) Fulfill(ctx context.Context, orderID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetWithLock(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPaid {
			return models.ErrOrderNotPaid
		}
		issued, err := s.issueMissing(ctx, order)
		if err != nil {
			return err
		}
		if !issued {
			return nil
		}
		return s.capacityFailsafe(ctx, order)
	})
	if err == nil {
		monitoring.ObserveFulfillment("ok")
		return nil
	}
	if errors.Is(err, models.ErrOverbooked) {
		return s.compensateOverbooked(ctx, orderID)
	}
	monitoring.ObserveFulfillment("error")
	return err
}

// issueMissing tops each line up to its ordered quantity and reports whether
// anything new was written. Sequence numbers continue from the highest one
// already on the line; a cancelled instance keeps its slot, so the line
// converges instead of retrying a taken (line, sequence) pair forever.
func (s *FulfillmentService) issueMissing(ctx context.Context, order *models.Order) (bool, error) {
	issued := false
	for i := range order.Lines {
		line := &order.Lines[i]
		lastSeq, err := s.instances.MaxSequenceNo(ctx, line.ID)
		if err != nil {
			return issued, err
		}
		if lastSeq >= line.Quantity {
			continue
		}
		batch := make([]*models.TicketInstance, 0, line.Quantity-lastSeq)
		for seq := lastSeq + 1; seq <= line.Quantity; seq++ {
			_, hash, err := helpers.GenerateOpaqueToken()
			if err != nil {
				return issued, err
			}
			batch = append(batch, &models.TicketInstance{
				OrderLineItemID:       line.ID,
				SequenceNo:            seq,
				VerificationTokenHash: hash,
				Status:                models.TicketInstanceStatusIssued,
				OwnerUserID:           order.UserID,
			})
		}
		if err := s.instances.CreateBatch(ctx, batch); err != nil {
			return issued, err
		}
		issued = true
	}
	return issued, nil
}

// capacityFailsafe re-checks issued counts against capacity for each unit
// the order touches. Reservation-time locking makes a trip here extremely
// unlikely; the check exists so a bug upstream degrades into a cancelled
// refunded order rather than an oversold event.
func (s *FulfillmentService) capacityFailsafe(ctx context.Context, order *models.Order) error {
	seen := make(map[string]bool)
	for i := range order.Lines {
		ref := order.Lines[i].UnitRef()
		if seen[ref.Key()] {
			continue
		}
		seen[ref.Key()] = true

		unit, err := s.catalog.ResolveUnit(ctx, order.EventID, ref.ID, ref.VariantID)
		if err != nil {
			return err
		}
		if unit.Unlimited() {
			continue
		}
		issued, err := s.inventory.IssuedQuantity(ctx, ref)
		if err != nil {
			return err
		}
		if issued > *unit.CapacityTotal {
			logrus.WithFields(logrus.Fields{
				"order_id": order.ID,
				"unit":     ref.Key(),
				"issued":   issued,
				"capacity": *unit.CapacityTotal,
			}).Error("issued count exceeds capacity, rolling back fulfillment")
			return models.ErrOverbooked
		}
	}
	return nil
}

func (s *FulfillmentService) compensateOverbooked(ctx context.Context, orderID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.orders.UpdateStatus(ctx, orderID, models.OrderStatusPaid, models.OrderStatusCancelled); err != nil {
			return err
		}
		return s.orders.MarkRefundDue(ctx, orderID)
	})
	if err != nil {
		monitoring.ObserveFulfillment("error")
		return err
	}
	monitoring.OversellFailsafeTrips.Inc()
	monitoring.ObserveFulfillment("overbooked_cancelled")
	logrus.WithField("order_id", orderID).
		Warn("order cancelled and flagged for refund by capacity failsafe")
	return nil
}
