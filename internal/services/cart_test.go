package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldenvr/stagepass/internal/models"
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func newTestEvent() *models.Event {
	return &models.Event{ID: uuid.New(), Title: "Test Fest", Currency: "IDR"}
}

func newTicketUnit(eventID uuid.UUID, price int64, capacity *int) *models.SellableUnit {
	return &models.SellableUnit{
		Kind:          models.UnitKindTicket,
		ID:            uuid.New(),
		EventID:       eventID,
		Name:          "General Admission",
		Price:         decimal.NewFromInt(price),
		Currency:      "IDR",
		CapacityTotal: capacity,
		MaxPerOrder:   10,
	}
}

func newCartService(store *fakeStore) *CartService {
	return NewCartService(store, NewInventoryService(store))
}

func TestCartValidatePricesFromCatalog(t *testing.T) {
	store := newFakeStore()
	event := newTestEvent()
	store.addEvent(event)
	unit := newTicketUnit(event.ID, 150000, intPtr(100))
	store.addUnit(unit)

	carts := newCartService(store)
	cart, err := carts.Validate(context.Background(), event.ID, []CartItemRequest{
		{UnitID: unit.ID, Quantity: 3},
	})
	require.NoError(t, err)

	assert.True(t, cart.Valid)
	assert.Equal(t, "IDR", cart.Currency)
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(450000)))
	require.Len(t, cart.Lines, 1)
	assert.True(t, cart.Lines[0].UnitPrice.Equal(decimal.NewFromInt(150000)))
}

func TestCartValidateEmptyCartIsValid(t *testing.T) {
	store := newFakeStore()
	event := newTestEvent()
	store.addEvent(event)

	carts := newCartService(store)
	cart, err := carts.Validate(context.Background(), event.ID, nil)
	require.NoError(t, err)

	assert.True(t, cart.Valid)
	assert.True(t, cart.Total.IsZero())
	assert.Empty(t, cart.Lines)
}

func TestCartValidateUnknownUnit(t *testing.T) {
	store := newFakeStore()
	event := newTestEvent()
	store.addEvent(event)

	carts := newCartService(store)
	cart, err := carts.Validate(context.Background(), event.ID, []CartItemRequest{
		{UnitID: uuid.New(), Quantity: 1},
	})
	require.NoError(t, err)

	assert.False(t, cart.Valid)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, models.CodeNotFound, cart.Lines[0].Code)
}

func TestCartValidateInvalidQuantity(t *testing.T) {
	store := newFakeStore()
	event := newTestEvent()
	store.addEvent(event)
	unit := newTicketUnit(event.ID, 100, nil)
	store.addUnit(unit)

	carts := newCartService(store)
	cart, err := carts.Validate(context.Background(), event.ID, []CartItemRequest{
		{UnitID: unit.ID, Quantity: 0},
	})
	require.NoError(t, err)

	assert.False(t, cart.Valid)
	assert.Equal(t, models.CodeInvalidQuantity, cart.Lines[0].Code)
}

func TestCartValidateSalesWindow(t *testing.T) {
	store := newFakeStore()
	event := newTestEvent()
	store.addEvent(event)

	now := time.Now()
	notStarted := newTicketUnit(event.ID, 100, nil)
	notStarted.SalesStart = timePtr(now.Add(time.Hour))
	store.addUnit(notStarted)

	ended := newTicketUnit(event.ID, 100, nil)
	ended.SalesEnd = timePtr(now.Add(-time.Hour))
	store.addUnit(ended)

	carts := newCartService(store)
	cart, err := carts.Validate(context.Background(), event.ID, []CartItemRequest{
		{UnitID: notStarted.ID, Quantity: 1},
		{UnitID: ended.ID, Quantity: 1},
	})
	require.NoError(t, err)

	assert.False(t, cart.Valid)
	assert.Equal(t, models.CodeSalesNotStarted, cart.Lines[0].Code)
	assert.Equal(t, models.CodeSalesEnded, cart.Lines[1].Code)
}

func TestCartValidateMaxPerOrder(t *testing.T) {
	store := newFakeStore()
	event := newTestEvent()
	store.addEvent(event)
	unit := newTicketUnit(event.ID, 100, nil)
	unit.MaxPerOrder = 4
	store.addUnit(unit)

	carts := newCartService(store)
	cart, err := carts.Validate(context.Background(), event.ID, []CartItemRequest{
		{UnitID: unit.ID, Quantity: 5},
	})
	require.NoError(t, err)

	assert.False(t, cart.Valid)
	assert.Equal(t, models.CodeExceedsMaxPerOrder, cart.Lines[0].Code)
}

func TestCartValidateUpgradeRequiresCompanionTicket(t *testing.T) {
	store := newFakeStore()
	event := newTestEvent()
	store.addEvent(event)

	vip := newTicketUnit(event.ID, 500000, intPtr(50))
	store.addUnit(vip)

	parking := &models.SellableUnit{
		Kind:                  models.UnitKindProduct,
		ID:                    uuid.New(),
		EventID:               event.ID,
		Name:                  "VIP Parking",
		Price:                 decimal.NewFromInt(50000),
		Currency:              "IDR",
		Category:              models.ProductCategoryUpgrade,
		MaxPerOrder:           10,
		RequiredTicketTypeIDs: []uuid.UUID{vip.ID},
	}
	store.addUnit(parking)

	carts := newCartService(store)

	// Alone in the cart the upgrade is rejected.
	cart, err := carts.Validate(context.Background(), event.ID, []CartItemRequest{
		{UnitID: parking.ID, Quantity: 1},
	})
	require.NoError(t, err)
	assert.False(t, cart.Valid)
	assert.Equal(t, models.CodeRestrictionNotMet, cart.Lines[0].Code)

	// With the companion ticket it passes.
	cart, err = carts.Validate(context.Background(), event.ID, []CartItemRequest{
		{UnitID: vip.ID, Quantity: 1},
		{UnitID: parking.ID, Quantity: 1},
	})
	require.NoError(t, err)
	assert.True(t, cart.Valid)
}

func TestCartValidateInsufficientCapacity(t *testing.T) {
	store := newFakeStore()
	event := newTestEvent()
	store.addEvent(event)
	unit := newTicketUnit(event.ID, 100, intPtr(5))
	store.addUnit(unit)

	// A pending order already holds 3 of the 5.
	ticketTypeID := unit.ID
	store.orders[uuid.New()] = &models.Order{
		ID:     uuid.New(),
		Status: models.OrderStatusPending,
		Lines: []models.OrderLineItem{
			{ID: uuid.New(), TicketTypeID: &ticketTypeID, Quantity: 3},
		},
	}

	carts := newCartService(store)
	cart, err := carts.Validate(context.Background(), event.ID, []CartItemRequest{
		{UnitID: unit.ID, Quantity: 3},
	})
	require.NoError(t, err)

	assert.False(t, cart.Valid)
	assert.Equal(t, models.CodeInsufficientCapacity, cart.Lines[0].Code)

	// Two still fit.
	cart, err = carts.Validate(context.Background(), event.ID, []CartItemRequest{
		{UnitID: unit.ID, Quantity: 2},
	})
	require.NoError(t, err)
	assert.True(t, cart.Valid)
}

func TestCartValidateSplitLinesShareCapacity(t *testing.T) {
	store := newFakeStore()
	event := newTestEvent()
	store.addEvent(event)
	unit := newTicketUnit(event.ID, 100, intPtr(5))
	store.addUnit(unit)

	// Two lines for the same unit are checked against their combined total.
	carts := newCartService(store)
	cart, err := carts.Validate(context.Background(), event.ID, []CartItemRequest{
		{UnitID: unit.ID, Quantity: 3},
		{UnitID: unit.ID, Quantity: 3},
	})
	require.NoError(t, err)

	assert.False(t, cart.Valid)
	assert.Empty(t, cart.Lines[0].Code)
	assert.Equal(t, models.CodeInsufficientCapacity, cart.Lines[1].Code)
}

func TestCartValidateExpiredOrdersReleaseCapacity(t *testing.T) {
	store := newFakeStore()
	event := newTestEvent()
	store.addEvent(event)
	unit := newTicketUnit(event.ID, 100, intPtr(2))
	store.addUnit(unit)

	ticketTypeID := unit.ID
	store.orders[uuid.New()] = &models.Order{
		ID:     uuid.New(),
		Status: models.OrderStatusExpired,
		Lines: []models.OrderLineItem{
			{ID: uuid.New(), TicketTypeID: &ticketTypeID, Quantity: 2},
		},
	}

	carts := newCartService(store)
	cart, err := carts.Validate(context.Background(), event.ID, []CartItemRequest{
		{UnitID: unit.ID, Quantity: 2},
	})
	require.NoError(t, err)
	assert.True(t, cart.Valid)
}

func TestCartValidateUnlimitedCapacity(t *testing.T) {
	store := newFakeStore()
	event := newTestEvent()
	store.addEvent(event)
	unit := newTicketUnit(event.ID, 100, nil)
	store.addUnit(unit)

	carts := newCartService(store)
	cart, err := carts.Validate(context.Background(), event.ID, []CartItemRequest{
		{UnitID: unit.ID, Quantity: 10},
	})
	require.NoError(t, err)
	assert.True(t, cart.Valid)
}
