package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aldenvr/stagepass/internal/models"
)

type CartItemRequest struct {
	UnitID    uuid.UUID  `json:"unit_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity"`
}

// CartLine is one validated request line. Code is empty when the line
// passed; a failing line never stops the other lines from being evaluated.
type CartLine struct {
	Item      CartItemRequest      `json:"item"`
	Unit      *models.SellableUnit `json:"-"`
	UnitPrice decimal.Decimal      `json:"unit_price"`
	LineTotal decimal.Decimal      `json:"line_total"`
	Code      string               `json:"code,omitempty"`
	Message   string               `json:"message,omitempty"`
}

type CartResult struct {
	Lines    []CartLine      `json:"lines"`
	Valid    bool            `json:"valid"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// CartService prices and validates carts. Prices always come from the
// catalog row at validation time; a client-supplied price is never trusted.
type CartService struct {
	catalog   CatalogRepository
	inventory *InventoryService
	now       func() time.Time
}

func NewCartService(catalog CatalogRepository, inventory *InventoryService) *CartService {
	return &CartService{catalog: catalog, inventory: inventory, now: time.Now}
}

// Validate checks every line independently and returns the priced cart. An
// empty cart is trivially valid with a zero total at this layer; the public
// checkout entrypoint rejects it with NO_ITEMS before ever reaching here.
// The two layers intentionally disagree, matching long-standing caller
// expectations on the capacity-validation endpoint.
func (s *CartService) Validate(ctx context.Context, eventID uuid.UUID, items []CartItemRequest) (*CartResult, error) {
	result := &CartResult{
		Lines: make([]CartLine, 0, len(items)),
		Valid: true,
		Total: decimal.Zero,
	}

	units := make([]*models.SellableUnit, len(items))
	for i, item := range items {
		unit, err := s.catalog.ResolveUnit(ctx, eventID, item.UnitID, item.VariantID)
		if err != nil {
			if !errors.Is(err, models.ErrUnitNotFound) {
				return nil, err
			}
			unit = nil
		}
		units[i] = unit
	}

	now := s.now()
	// accepted tracks quantity already taken by earlier passing lines, so a
	// unit split across several lines is checked against its combined total.
	accepted := make(map[string]int)
	for i, item := range items {
		line := CartLine{Item: item, Unit: units[i]}
		s.validateLine(ctx, &line, units, accepted, now)
		if line.Code != "" {
			result.Valid = false
		} else {
			result.Total = result.Total.Add(line.LineTotal)
			if result.Currency == "" {
				result.Currency = line.Unit.Currency
			}
		}
		result.Lines = append(result.Lines, line)
	}
	return result, nil
}

func (s *CartService) validateLine(ctx context.Context, line *CartLine, cartUnits []*models.SellableUnit, accepted map[string]int, now time.Time) {
	if line.Unit == nil {
		line.Code = models.CodeNotFound
		line.Message = "Unit does not exist for this event."
		return
	}
	if line.Item.Quantity < 1 {
		line.Code = models.CodeInvalidQuantity
		line.Message = "Quantity must be at least 1."
		return
	}
	started, ended := line.Unit.OnSaleAt(now)
	if !started {
		line.Code = models.CodeSalesNotStarted
		line.Message = "Sales have not started for this unit."
		return
	}
	if ended {
		line.Code = models.CodeSalesEnded
		line.Message = "Sales have ended for this unit."
		return
	}
	if line.Unit.MaxPerOrder > 0 && line.Item.Quantity > line.Unit.MaxPerOrder {
		line.Code = models.CodeExceedsMaxPerOrder
		line.Message = fmt.Sprintf("At most %d per order.", line.Unit.MaxPerOrder)
		return
	}
	if !s.restrictionMet(line.Unit, cartUnits) {
		line.Code = models.CodeRestrictionNotMet
		line.Message = "This add-on requires a companion ticket in the same cart."
		return
	}
	available, unlimited, err := s.inventory.Available(ctx, line.Unit)
	if err != nil {
		line.Code = models.CodeTemporarilyUnavailable
		line.Message = "Could not read availability."
		return
	}
	key := line.Unit.Ref().Key()
	if !unlimited && available-accepted[key] < line.Item.Quantity {
		line.Code = models.CodeInsufficientCapacity
		line.Message = fmt.Sprintf("Only %d left.", available-accepted[key])
		return
	}
	accepted[key] += line.Item.Quantity
	line.UnitPrice = line.Unit.Price
	line.LineTotal = line.Unit.Price.Mul(decimal.NewFromInt(int64(line.Item.Quantity)))
}

// restrictionMet enforces the upgrade rule: an upgrade product needs at
// least one of its companion ticket types elsewhere in the same cart.
func (s *CartService) restrictionMet(unit *models.SellableUnit, cartUnits []*models.SellableUnit) bool {
	if unit.Category != models.ProductCategoryUpgrade || len(unit.RequiredTicketTypeIDs) == 0 {
		return true
	}
	for _, other := range cartUnits {
		if other == nil || other.Kind != models.UnitKindTicket {
			continue
		}
		for _, required := range unit.RequiredTicketTypeIDs {
			if other.ID == required {
				return true
			}
		}
	}
	return false
}
