package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/grupoterrena/terrena-api/internal/models"
	"github.com/grupoterrena/terrena-api/internal/repository"
)

func setupUnitSync(t *testing.T, statuses ...string) (*UnitSyncService, repository.UnitRepository, []uint) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Unit{}))

	repo := repository.NewUnitRepository(db)
	ids := make([]uint, len(statuses))
	for i, status := range statuses {
		unit := &models.Unit{Number: string(rune('A' + i)), Area: 100, PurchaseCost: 1000, Status: status}
		require.NoError(t, repo.Create(context.Background(), unit))
		ids[i] = unit.ID
	}
	return NewUnitSyncService(repo), repo, ids
}

func statusOf(t *testing.T, repo repository.UnitRepository, id uint) string {
	unit, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	return unit.Status
}

func TestReserveAllAvailable(t *testing.T) {
	svc, repo, ids := setupUnitSync(t, models.UnitStatusAvailable, models.UnitStatusAvailable)

	require.NoError(t, svc.Reserve(context.Background(), ids))
	for _, id := range ids {
		assert.Equal(t, models.UnitStatusReserved, statusOf(t, repo, id))
	}
}

func TestReserveConflictRollsBackOnlyOwnClaims(t *testing.T) {
	svc, repo, ids := setupUnitSync(t,
		models.UnitStatusAvailable, models.UnitStatusReserved, models.UnitStatusSold)

	err := svc.Reserve(context.Background(), ids)
	var conflict *AvailabilityConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint{ids[1], ids[2]}, conflict.UnitIDs)

	// Our claim on the available unit is undone; the foreign reservation
	// and the sold unit are untouched.
	assert.Equal(t, models.UnitStatusAvailable, statusOf(t, repo, ids[0]))
	assert.Equal(t, models.UnitStatusReserved, statusOf(t, repo, ids[1]))
	assert.Equal(t, models.UnitStatusSold, statusOf(t, repo, ids[2]))
}

func TestMarkSold(t *testing.T) {
	svc, repo, ids := setupUnitSync(t, models.UnitStatusReserved)

	require.NoError(t, svc.MarkSold(context.Background(), ids))
	assert.Equal(t, models.UnitStatusSold, statusOf(t, repo, ids[0]))
}

func TestMarkSoldRequiresReservation(t *testing.T) {
	svc, _, ids := setupUnitSync(t, models.UnitStatusAvailable)

	err := svc.MarkSold(context.Background(), ids)
	var inconsistency *InconsistencyError
	require.ErrorAs(t, err, &inconsistency)
}

func TestReleaseReservedAndSold(t *testing.T) {
	svc, repo, ids := setupUnitSync(t, models.UnitStatusReserved, models.UnitStatusSold)

	require.NoError(t, svc.Release(context.Background(), ids))
	for _, id := range ids {
		assert.Equal(t, models.UnitStatusAvailable, statusOf(t, repo, id))
	}
}

func TestReleaseAvailableUnitFails(t *testing.T) {
	svc, _, ids := setupUnitSync(t, models.UnitStatusAvailable)

	err := svc.Release(context.Background(), ids)
	var inconsistency *InconsistencyError
	require.ErrorAs(t, err, &inconsistency)
}
