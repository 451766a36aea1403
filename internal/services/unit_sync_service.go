package services

import (
	"context"

	"github.com/grupoterrena/terrena-api/internal/models"
	"github.com/grupoterrena/terrena-api/internal/repository"
)

// UnitSyncService keeps unit availability in step with sale lifecycle events.
// Every transition is a compare-and-set on the expected prior status; a short
// write count means another sale won the unit first.
type UnitSyncService struct {
	unitRepo repository.UnitRepository
}

// NewUnitSyncService creates a new unit sync service
func NewUnitSyncService(unitRepo repository.UnitRepository) *UnitSyncService {
	return &UnitSyncService{unitRepo: unitRepo}
}

// Reserve moves the given units from available to reserved. When any unit is
// no longer available the whole reservation fails with the losing unit IDs.
// Units are claimed one at a time so winners and losers are known exactly;
// a unit reserved by a concurrent sale must never be touched on rollback.
func (s *UnitSyncService) Reserve(ctx context.Context, unitIDs []uint) error {
	var won, conflicting []uint
	for _, id := range unitIDs {
		affected, err := s.unitRepo.UpdateStatusWhere(ctx, []uint{id},
			[]string{models.UnitStatusAvailable}, models.UnitStatusReserved)
		if err != nil {
			return err
		}
		if affected == 1 {
			won = append(won, id)
		} else {
			conflicting = append(conflicting, id)
		}
	}
	if len(conflicting) == 0 {
		return nil
	}

	// Roll our own claims back so a failed reservation leaves no trace.
	if len(won) > 0 {
		if _, rbErr := s.unitRepo.UpdateStatusWhere(ctx, won,
			[]string{models.UnitStatusReserved}, models.UnitStatusAvailable); rbErr != nil {
			return rbErr
		}
	}
	return &AvailabilityConflictError{UnitIDs: conflicting}
}

// MarkSold moves reserved units to sold
func (s *UnitSyncService) MarkSold(ctx context.Context, unitIDs []uint) error {
	affected, err := s.unitRepo.UpdateStatusWhere(ctx, unitIDs,
		[]string{models.UnitStatusReserved}, models.UnitStatusSold)
	if err != nil {
		return err
	}
	if affected != int64(len(unitIDs)) {
		return NewInconsistencyError("se esperaban %d unidades reservadas, %d actualizadas", len(unitIDs), affected)
	}
	return nil
}

// Release returns reserved or sold units to available, used on cancellation
// and deadline expiry.
func (s *UnitSyncService) Release(ctx context.Context, unitIDs []uint) error {
	affected, err := s.unitRepo.UpdateStatusWhere(ctx, unitIDs,
		[]string{models.UnitStatusReserved, models.UnitStatusSold}, models.UnitStatusAvailable)
	if err != nil {
		return err
	}
	if affected != int64(len(unitIDs)) {
		return NewInconsistencyError("liberación incompleta: %d de %d unidades", affected, len(unitIDs))
	}
	return nil
}
