package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aldenvr/stagepass/internal/helpers"
	"github.com/aldenvr/stagepass/internal/models"
	"github.com/aldenvr/stagepass/internal/monitoring"
)

// PaymentNotice is a provider notification after mapping from the raw
// webhook payload.
type PaymentNotice struct {
	Provider        string
	ProviderEventID string
	OrderID         uuid.UUID
	Outcome         string
	Payload         string
}

// OrderLookup bundles an order with its issued tickets for the buyer-facing
// lookup endpoint.
type OrderLookup struct {
	Order   *models.Order
	Tickets []*models.TicketInstance
}

// OrderService owns the order status machine. Every transition out of
// pending happens here under a row lock, guarded again by the storage layer.
type OrderService struct {
	tx         TxRunner
	orders     OrderRepository
	events     PaymentEventLog
	instances  TicketInstanceRepository
	dispatcher FulfillmentDispatcher
	now        func() time.Time
}

func NewOrderService(tx TxRunner, orders OrderRepository, events PaymentEventLog, instances TicketInstanceRepository, dispatcher FulfillmentDispatcher) *OrderService {
	return &OrderService{
		tx:         tx,
		orders:     orders,
		events:     events,
		instances:  instances,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// ProcessPaymentEvent records the notice and applies it to the order. The
// append into the event log and the status transition commit together, so a
// redelivered event either hits the duplicate guard or finds the order
// already out of pending; both are acknowledged without a second transition.
func (s *OrderService) ProcessPaymentEvent(ctx context.Context, notice PaymentNotice) error {
	var becamePaid bool
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		event := &models.PaymentEvent{
			Provider:        notice.Provider,
			ProviderEventID: notice.ProviderEventID,
			OrderID:         notice.OrderID,
			Outcome:         notice.Outcome,
			Payload:         notice.Payload,
		}
		if err := s.events.Append(ctx, event); err != nil {
			if errors.Is(err, models.ErrDuplicatePaymentEvent) {
				logrus.WithFields(logrus.Fields{
					"provider": notice.Provider,
					"event_id": notice.ProviderEventID,
				}).Info("replayed payment event, ignoring")
				monitoring.ObserveWebhook("duplicate")
				return nil
			}
			return err
		}

		order, err := s.orders.GetWithLock(ctx, notice.OrderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending {
			// Late notices for settled orders are acknowledged and kept in
			// the event log; the order does not move again.
			logrus.WithFields(logrus.Fields{
				"order_id": order.ID,
				"status":   order.Status,
			}).Info("payment event for settled order, ignoring")
			monitoring.ObserveWebhook("late")
			return nil
		}

		to := models.OrderStatusFailed
		if notice.Outcome == models.PaymentOutcomeSucceeded {
			to = models.OrderStatusPaid
		}
		if err := s.orders.UpdateStatus(ctx, order.ID, models.OrderStatusPending, to); err != nil {
			return err
		}
		becamePaid = to == models.OrderStatusPaid
		monitoring.ObserveWebhook(notice.Outcome)
		return nil
	})
	if err != nil {
		return err
	}
	if becamePaid {
		if err := s.dispatcher.Dispatch(ctx, notice.OrderID); err != nil {
			// The order is already paid and committed; fulfillment catches
			// up when the order is re-dispatched or swept.
			logrus.WithError(err).WithField("order_id", notice.OrderID).
				Error("failed to dispatch paid order for fulfillment")
		}
	}
	return nil
}

// MarkPaid settles a zero-amount order without a payment provider round trip
// and dispatches it for fulfillment.
func (s *OrderService) MarkPaid(ctx context.Context, orderID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetWithLock(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransition(models.OrderStatusPaid) {
			return models.ErrInvalidStatusTransition
		}
		return s.orders.UpdateStatus(ctx, orderID, models.OrderStatusPending, models.OrderStatusPaid)
	})
	if err != nil {
		return err
	}
	if err := s.dispatcher.Dispatch(ctx, orderID); err != nil {
		logrus.WithError(err).WithField("order_id", orderID).
			Error("failed to dispatch paid order for fulfillment")
	}
	return nil
}

// LookupByToken resolves the buyer-facing opaque token to the order and its
// tickets. The raw token is hashed before touching storage.
func (s *OrderService) LookupByToken(ctx context.Context, rawToken string) (*OrderLookup, error) {
	order, err := s.orders.GetByLookupHash(ctx, helpers.HashOpaqueToken(rawToken))
	if err != nil {
		return nil, err
	}
	tickets, err := s.instances.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &OrderLookup{Order: order, Tickets: tickets}, nil
}

// ExpireStale moves every pending order past its deadline to expired,
// releasing the capacity its lines were holding.
func (s *OrderService) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.orders.ExpireOlderThan(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		monitoring.ExpiredReservations.Add(float64(n))
		logrus.WithField("count", n).Info("expired stale pending orders")
	}
	return n, nil
}
