package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aldenvr/stagepass/internal/models"
)

// fakeStore is an in-memory stand-in for the postgres-backed repositories.
// WithTx snapshots the mutable state and restores it when the scoped
// function fails, mirroring a rolled-back transaction.
type fakeStore struct {
	mu sync.Mutex

	events map[uuid.UUID]*models.Event
	units  map[string]*models.SellableUnit

	orders        map[uuid.UUID]*models.Order
	paymentEvents map[string]*models.PaymentEvent
	instances     map[uuid.UUID][]*models.TicketInstance

	lockBusy   bool
	lockedRefs [][]models.UnitRef
	createErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:        make(map[uuid.UUID]*models.Event),
		units:         make(map[string]*models.SellableUnit),
		orders:        make(map[uuid.UUID]*models.Order),
		paymentEvents: make(map[string]*models.PaymentEvent),
		instances:     make(map[uuid.UUID][]*models.TicketInstance),
	}
}

func unitKey(eventID uuid.UUID, ref models.UnitRef) string {
	return eventID.String() + "/" + ref.Key()
}

func (f *fakeStore) addEvent(event *models.Event) {
	f.events[event.ID] = event
}

func (f *fakeStore) addUnit(unit *models.SellableUnit) {
	f.units[unitKey(unit.EventID, unit.Ref())] = unit
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ordersSnap := cloneOrders(f.orders)
	eventsSnap := clonePaymentEvents(f.paymentEvents)
	instancesSnap := cloneInstances(f.instances)

	if err := fn(ctx); err != nil {
		f.orders = ordersSnap
		f.paymentEvents = eventsSnap
		f.instances = instancesSnap
		return err
	}
	return nil
}

func cloneOrders(in map[uuid.UUID]*models.Order) map[uuid.UUID]*models.Order {
	out := make(map[uuid.UUID]*models.Order, len(in))
	for k, v := range in {
		clone := *v
		clone.Lines = append([]models.OrderLineItem(nil), v.Lines...)
		out[k] = &clone
	}
	return out
}

func clonePaymentEvents(in map[string]*models.PaymentEvent) map[string]*models.PaymentEvent {
	out := make(map[string]*models.PaymentEvent, len(in))
	for k, v := range in {
		clone := *v
		out[k] = &clone
	}
	return out
}

func cloneInstances(in map[uuid.UUID][]*models.TicketInstance) map[uuid.UUID][]*models.TicketInstance {
	out := make(map[uuid.UUID][]*models.TicketInstance, len(in))
	for k, v := range in {
		list := make([]*models.TicketInstance, len(v))
		for i, inst := range v {
			clone := *inst
			list[i] = &clone
		}
		out[k] = list
	}
	return out
}

// CatalogRepository

func (f *fakeStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	return event, nil
}

func (f *fakeStore) ResolveUnit(ctx context.Context, eventID, unitID uuid.UUID, variantID *uuid.UUID) (*models.SellableUnit, error) {
	ref := models.UnitRef{ID: unitID, VariantID: variantID}
	unit, ok := f.units[unitKey(eventID, ref)]
	if !ok {
		return nil, models.ErrUnitNotFound
	}
	return unit, nil
}

func (f *fakeStore) LockUnits(ctx context.Context, refs []models.UnitRef) error {
	f.lockedRefs = append(f.lockedRefs, refs)
	if f.lockBusy {
		return models.ErrUnitUnavailable
	}
	return nil
}

// InventoryRepository

func (f *fakeStore) ReservedQuantity(ctx context.Context, ref models.UnitRef) (int, error) {
	total := 0
	for _, order := range f.orders {
		if !order.Status.HoldsCapacity() {
			continue
		}
		for _, line := range order.Lines {
			if line.UnitRef().Key() == ref.Key() {
				total += line.Quantity
			}
		}
	}
	return total, nil
}

func (f *fakeStore) IssuedQuantity(ctx context.Context, ref models.UnitRef) (int, error) {
	total := 0
	for _, order := range f.orders {
		if order.Status != models.OrderStatusPaid {
			continue
		}
		for _, line := range order.Lines {
			if line.UnitRef().Key() != ref.Key() {
				continue
			}
			for _, inst := range f.instances[line.ID] {
				if inst.Status != models.TicketInstanceStatusCancelled {
					total++
				}
			}
		}
	}
	return total, nil
}

// OrderRepository

func (f *fakeStore) Create(ctx context.Context, order *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Lines {
		if order.Lines[i].ID == uuid.Nil {
			order.Lines[i].ID = uuid.New()
		}
		order.Lines[i].OrderID = order.ID
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeStore) GetWithLock(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeStore) GetByLookupHash(ctx context.Context, hash string) (*models.Order, error) {
	for _, order := range f.orders {
		if order.LookupTokenHash == hash {
			return order, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error {
	order, ok := f.orders[id]
	if !ok || order.Status != from {
		return models.ErrInvalidStatusTransition
	}
	order.Status = to
	return nil
}

func (f *fakeStore) MarkRefundDue(ctx context.Context, id uuid.UUID) error {
	order, ok := f.orders[id]
	if !ok {
		return models.ErrOrderNotFound
	}
	order.RefundDue = true
	return nil
}

func (f *fakeStore) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	for _, order := range f.orders {
		if order.Status == models.OrderStatusPending && order.ExpiresAt.Before(cutoff) {
			order.Status = models.OrderStatusExpired
			count++
		}
	}
	return count, nil
}

// PaymentEventLog

func paymentEventKey(provider, providerEventID string) string {
	return provider + "/" + providerEventID
}

func (f *fakeStore) Append(ctx context.Context, event *models.PaymentEvent) error {
	key := paymentEventKey(event.Provider, event.ProviderEventID)
	if _, exists := f.paymentEvents[key]; exists {
		return models.ErrDuplicatePaymentEvent
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	f.paymentEvents[key] = event
	return nil
}

func (f *fakeStore) FindByProviderEvent(ctx context.Context, provider, providerEventID string) (*models.PaymentEvent, error) {
	event, ok := f.paymentEvents[paymentEventKey(provider, providerEventID)]
	if !ok {
		return nil, nil
	}
	return event, nil
}

// TicketInstanceRepository

func (f *fakeStore) MaxSequenceNo(ctx context.Context, lineItemID uuid.UUID) (int, error) {
	max := 0
	for _, inst := range f.instances[lineItemID] {
		if inst.SequenceNo > max {
			max = inst.SequenceNo
		}
	}
	return max, nil
}

func (f *fakeStore) CreateBatch(ctx context.Context, instances []*models.TicketInstance) error {
	for _, inst := range instances {
		exists := false
		for _, existing := range f.instances[inst.OrderLineItemID] {
			if existing.SequenceNo == inst.SequenceNo {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		if inst.ID == uuid.Nil {
			inst.ID = uuid.New()
		}
		f.instances[inst.OrderLineItemID] = append(f.instances[inst.OrderLineItemID], inst)
	}
	return nil
}

func (f *fakeStore) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*models.TicketInstance, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	var out []*models.TicketInstance
	for _, line := range order.Lines {
		out = append(out, f.instances[line.ID]...)
	}
	return out, nil
}

// fakeDispatcher records dispatched order IDs.
type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []uuid.UUID
	err        error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, orderID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.dispatched = append(d.dispatched, orderID)
	return nil
}
