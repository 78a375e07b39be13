package services

import (
	"context"

	"github.com/aldenvr/stagepass/internal/models"
)

// InventoryService is the ledger: it nets a unit's capacity against the
// quantities held by pending and paid orders. It has no side effects; the
// serialization guarantee comes from being called inside the reservation
// transaction after the unit row is locked.
type InventoryService struct {
	inventory InventoryRepository
}

func NewInventoryService(inventory InventoryRepository) *InventoryService {
	return &InventoryService{inventory: inventory}
}

// Available returns the units still sellable. unlimited is true when the
// unit carries no capacity bound, in which case available is meaningless.
func (s *InventoryService) Available(ctx context.Context, unit *models.SellableUnit) (available int, unlimited bool, err error) {
	if unit.Unlimited() {
		return 0, true, nil
	}
	reserved, err := s.inventory.ReservedQuantity(ctx, unit.Ref())
	if err != nil {
		return 0, false, err
	}
	available = *unit.CapacityTotal - reserved
	if available < 0 {
		available = 0
	}
	return available, false, nil
}
