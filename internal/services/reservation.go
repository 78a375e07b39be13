package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aldenvr/stagepass/internal/helpers"
	"github.com/aldenvr/stagepass/internal/models"
)

type ReserveInput struct {
	EventID uuid.UUID
	Email   string
	UserID  *uuid.UUID
	Items   []CartItemRequest
}

// ReservationService turns a validated cart into a pending order while the
// involved unit rows are locked, so two carts can never both pass the
// capacity check against the same remaining seats.
type ReservationService struct {
	tx      TxRunner
	catalog CatalogRepository
	carts   *CartService
	orders  OrderRepository
	ttl     time.Duration
	now     func() time.Time
}

func NewReservationService(tx TxRunner, catalog CatalogRepository, carts *CartService, orders OrderRepository, ttl time.Duration) *ReservationService {
	return &ReservationService{
		tx:      tx,
		catalog: catalog,
		carts:   carts,
		orders:  orders,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Reserve locks the referenced unit rows, re-validates the cart under the
// locks, and creates a pending order holding its capacity until ExpiresAt.
// When the cart fails validation the returned CartResult carries the
// per-line codes and no order exists; the transaction never commits a
// partial reservation.
func (s *ReservationService) Reserve(ctx context.Context, input ReserveInput) (*models.Order, *CartResult, error) {
	if _, err := s.catalog.GetEvent(ctx, input.EventID); err != nil {
		return nil, nil, err
	}

	var (
		order    *models.Order
		rejected *CartResult
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		refs := make([]models.UnitRef, 0, len(input.Items))
		for _, item := range input.Items {
			unit, err := s.catalog.ResolveUnit(ctx, input.EventID, item.UnitID, item.VariantID)
			if err != nil {
				// Unresolvable lines still get their NOT_FOUND code from
				// the validator; there is no row to lock for them.
				continue
			}
			refs = append(refs, unit.Ref())
		}
		if err := s.catalog.LockUnits(ctx, refs); err != nil {
			return err
		}

		cart, err := s.carts.Validate(ctx, input.EventID, input.Items)
		if err != nil {
			return err
		}
		if !cart.Valid {
			rejected = cart
			return models.ErrCartRejected
		}

		order, err = s.buildOrder(input, cart)
		if err != nil {
			return err
		}
		return s.orders.Create(ctx, order)
	})
	if err != nil {
		if rejected != nil {
			return nil, rejected, models.ErrCartRejected
		}
		return nil, nil, err
	}
	return order, nil, nil
}

func (s *ReservationService) buildOrder(input ReserveInput, cart *CartResult) (*models.Order, error) {
	rawToken, tokenHash, err := helpers.GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}
	order := &models.Order{
		ID:              uuid.New(),
		EventID:         input.EventID,
		Email:           input.Email,
		UserID:          input.UserID,
		Status:          models.OrderStatusPending,
		Total:           cart.Total,
		Currency:        cart.Currency,
		LookupTokenHash: tokenHash,
		LookupToken:     rawToken,
		ExpiresAt:       s.now().Add(s.ttl),
	}
	for _, line := range cart.Lines {
		item := models.OrderLineItem{
			Quantity:  line.Item.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal,
		}
		switch line.Unit.Kind {
		case models.UnitKindTicket:
			id := line.Unit.ID
			item.TicketTypeID = &id
		default:
			id := line.Unit.ID
			item.ProductID = &id
			item.ProductVariantID = line.Unit.VariantID
		}
		order.Lines = append(order.Lines, item)
	}
	return order, nil
}
