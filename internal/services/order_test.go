package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldenvr/stagepass/internal/helpers"
	"github.com/aldenvr/stagepass/internal/models"
)

func addPendingOrder(store *fakeStore) *models.Order {
	raw, hash, _ := helpers.GenerateOpaqueToken()
	order := &models.Order{
		ID:              uuid.New(),
		EventID:         uuid.New(),
		Email:           "buyer@example.com",
		Status:          models.OrderStatusPending,
		LookupToken:     raw,
		LookupTokenHash: hash,
		ExpiresAt:       time.Now().Add(15 * time.Minute),
		Lines: []models.OrderLineItem{
			{ID: uuid.New(), Quantity: 2},
		},
	}
	store.orders[order.ID] = order
	return order
}

func TestProcessPaymentEventMarksPaidAndDispatches(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	orders := NewOrderService(store, store, store, store, dispatcher)

	order := addPendingOrder(store)
	err := orders.ProcessPaymentEvent(context.Background(), PaymentNotice{
		Provider:        "doku",
		ProviderEventID: "evt-1",
		OrderID:         order.ID,
		Outcome:         models.PaymentOutcomeSucceeded,
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPaid, order.Status)
	require.Len(t, dispatcher.dispatched, 1)
	assert.Equal(t, order.ID, dispatcher.dispatched[0])
}

func TestProcessPaymentEventDeliveredTwice(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	orders := NewOrderService(store, store, store, store, dispatcher)

	order := addPendingOrder(store)
	notice := PaymentNotice{
		Provider:        "doku",
		ProviderEventID: "evt-1",
		OrderID:         order.ID,
		Outcome:         models.PaymentOutcomeSucceeded,
	}
	require.NoError(t, orders.ProcessPaymentEvent(context.Background(), notice))
	require.NoError(t, orders.ProcessPaymentEvent(context.Background(), notice))

	assert.Equal(t, models.OrderStatusPaid, order.Status)
	// The duplicate delivery must not dispatch a second time.
	assert.Len(t, dispatcher.dispatched, 1)
	assert.Len(t, store.paymentEvents, 1)
}

func TestProcessPaymentEventForSettledOrder(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	orders := NewOrderService(store, store, store, store, dispatcher)

	order := addPendingOrder(store)
	order.Status = models.OrderStatusExpired

	err := orders.ProcessPaymentEvent(context.Background(), PaymentNotice{
		Provider:        "doku",
		ProviderEventID: "evt-late",
		OrderID:         order.ID,
		Outcome:         models.PaymentOutcomeSucceeded,
	})
	require.NoError(t, err)

	// The notice is kept for reconciliation but the order does not move.
	assert.Equal(t, models.OrderStatusExpired, order.Status)
	assert.Empty(t, dispatcher.dispatched)
	assert.Len(t, store.paymentEvents, 1)
}

func TestProcessPaymentEventFailedOutcome(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	orders := NewOrderService(store, store, store, store, dispatcher)

	order := addPendingOrder(store)
	err := orders.ProcessPaymentEvent(context.Background(), PaymentNotice{
		Provider:        "doku",
		ProviderEventID: "evt-1",
		OrderID:         order.ID,
		Outcome:         models.PaymentOutcomeFailed,
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusFailed, order.Status)
	assert.Empty(t, dispatcher.dispatched)
}

func TestMarkPaidSettlesFreeOrder(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	orders := NewOrderService(store, store, store, store, dispatcher)

	order := addPendingOrder(store)
	require.NoError(t, orders.MarkPaid(context.Background(), order.ID))

	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Len(t, dispatcher.dispatched, 1)
}

func TestMarkPaidRejectsSettledOrder(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	orders := NewOrderService(store, store, store, store, dispatcher)

	order := addPendingOrder(store)
	order.Status = models.OrderStatusCancelled

	err := orders.MarkPaid(context.Background(), order.ID)
	assert.ErrorIs(t, err, models.ErrInvalidStatusTransition)
	assert.Empty(t, dispatcher.dispatched)
}

func TestLookupByToken(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	orders := NewOrderService(store, store, store, store, dispatcher)

	order := addPendingOrder(store)
	lookup, err := orders.LookupByToken(context.Background(), order.LookupToken)
	require.NoError(t, err)
	assert.Equal(t, order.ID, lookup.Order.ID)

	_, err = orders.LookupByToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestExpireStale(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	orders := NewOrderService(store, store, store, store, dispatcher)

	stale := addPendingOrder(store)
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	fresh := addPendingOrder(store)

	n, err := orders.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, models.OrderStatusExpired, stale.Status)
	assert.Equal(t, models.OrderStatusPending, fresh.Status)
}
