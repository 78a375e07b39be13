package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aldenvr/stagepass/internal/models"
)

type CatalogRepository struct {
	*Store
}

func NewCatalogRepository(store *Store) *CatalogRepository {
	return &CatalogRepository{Store: store}
}

func (r *CatalogRepository) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.conn(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

// ResolveUnit looks a raw unit id up as a ticket type first, then as a
// product, always scoped to the event. Soft-deleted rows are invisible.
func (r *CatalogRepository) ResolveUnit(ctx context.Context, eventID, unitID uuid.UUID, variantID *uuid.UUID) (*models.SellableUnit, error) {
	var ticketType models.TicketType
	err := r.conn(ctx).Where("id = ? AND event_id = ?", unitID, eventID).First(&ticketType).Error
	if err == nil {
		if variantID != nil {
			return nil, models.ErrUnitNotFound
		}
		return ticketTypeUnit(&ticketType), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var product models.Product
	err = r.conn(ctx).
		Preload("Variants").
		Preload("RequiredTicketTypes").
		Where("id = ? AND event_id = ?", unitID, eventID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUnitNotFound
		}
		return nil, err
	}
	return productUnit(&product, variantID)
}

func ticketTypeUnit(t *models.TicketType) *models.SellableUnit {
	return &models.SellableUnit{
		Kind:          models.UnitKindTicket,
		ID:            t.ID,
		EventID:       t.EventID,
		Name:          t.Name,
		Price:         t.Price,
		Currency:      t.Currency,
		CapacityTotal: t.CapacityTotal,
		SalesStart:    t.SalesStart,
		SalesEnd:      t.SalesEnd,
		MaxPerOrder:   t.MaxPerOrder,
	}
}

func productUnit(p *models.Product, variantID *uuid.UUID) (*models.SellableUnit, error) {
	unit := &models.SellableUnit{
		Kind:          models.UnitKindProduct,
		ID:            p.ID,
		EventID:       p.EventID,
		Name:          p.Name,
		Price:         p.Price,
		Currency:      p.Currency,
		CapacityTotal: p.CapacityTotal,
		SalesStart:    p.SalesStart,
		SalesEnd:      p.SalesEnd,
		MaxPerOrder:   p.MaxPerOrder,
		Category:      p.Category,
	}
	for _, required := range p.RequiredTicketTypes {
		unit.RequiredTicketTypeIDs = append(unit.RequiredTicketTypeIDs, required.ID)
	}
	if variantID == nil {
		return unit, nil
	}
	for i := range p.Variants {
		variant := &p.Variants[i]
		if variant.ID != *variantID {
			continue
		}
		unit.VariantID = &variant.ID
		unit.Name = p.Name + " - " + variant.Name
		if variant.Price != nil {
			unit.Price = *variant.Price
		}
		if variant.CapacityTotal != nil {
			unit.CapacityTotal = variant.CapacityTotal
		}
		return unit, nil
	}
	return nil, models.ErrUnitNotFound
}

// LockUnits acquires FOR UPDATE NOWAIT locks on the unit rows in a globally
// consistent order (sorted by ref key) so concurrent carts over overlapping
// unit sets cannot deadlock. A lock held elsewhere surfaces as
// ErrUnitUnavailable instead of blocking; variant refs lock their parent
// product row.
func (r *CatalogRepository) LockUnits(ctx context.Context, refs []models.UnitRef) error {
	sorted := make([]models.UnitRef, len(refs))
	copy(sorted, refs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key() < sorted[j].Key() })

	seen := make(map[uuid.UUID]bool, len(sorted))
	for _, ref := range sorted {
		if seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true

		locking := clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}
		var row struct{ ID uuid.UUID }
		query := r.conn(ctx).Clauses(locking).Select("id").Where("id = ?", ref.ID)
		var err error
		switch ref.Kind {
		case models.UnitKindTicket:
			err = query.Model(&models.TicketType{}).Take(&row).Error
		default:
			err = query.Model(&models.Product{}).Take(&row).Error
		}
		if err != nil {
			if isLockNotAvailable(err) {
				return models.ErrUnitUnavailable
			}
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrUnitNotFound
			}
			return err
		}
	}
	return nil
}
