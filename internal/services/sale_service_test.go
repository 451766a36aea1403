package services

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/grupoterrena/terrena-api/internal/database"
	"github.com/grupoterrena/terrena-api/internal/jobs"
	"github.com/grupoterrena/terrena-api/internal/models"
	"github.com/grupoterrena/terrena-api/internal/repository"
)

func setupSaleTest(t *testing.T) (*SaleService, *repository.Repositories, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	repos := repository.NewRepositories(db)
	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)
	svc := NewSaleService(repos, NewAuditService(db, worker))
	return svc, repos, db
}

func seedClient(t *testing.T, repos *repository.Repositories) *models.Client {
	client := &models.Client{FullName: "María Pérez", Identity: "0801-1985-01234"}
	require.NoError(t, repos.Client.Create(context.Background(), client))
	return client
}

func seedUnit(t *testing.T, repos *repository.Repositories, number string, installmentPrice, fullPrice float64) *models.Unit {
	unit := &models.Unit{
		Number:       number,
		Area:         250,
		PurchaseCost: installmentPrice * 0.7,
		Status:       models.UnitStatusAvailable,
	}
	if installmentPrice > 0 {
		unit.InstallmentPrice = &installmentPrice
	}
	if fullPrice > 0 {
		unit.FullPrice = &fullPrice
	}
	require.NoError(t, repos.Unit.Create(context.Background(), unit))
	return unit
}

func uintPtr(v uint) *uint { return &v }

func TestCreateReservesUnitsAndWritesReservation(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	client := seedClient(t, repos)
	unit := seedUnit(t, repos, "L-101", 10000, 0)

	sale, err := svc.Create(ctx, &CreateSaleInput{
		ClientID:          client.ID,
		UnitIDs:           []uint{unit.ID},
		PaymentMode:       models.SaleModeInstallment,
		ReservationAmount: 1000,
		Actor:             "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusAwaitingPayment, sale.Status)
	assert.Equal(t, 10000.0, sale.TotalPrice)
	assert.NotEmpty(t, sale.GUID)

	reserved, err := repos.Unit.FindByID(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusReserved, reserved.Status)

	payments, err := repos.Payment.FindBySale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentKindSmallAdvance, payments[0].Kind)
	assert.Equal(t, 1000.0, payments[0].Amount)
}

func TestCreateRejectsTakenUnit(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	client := seedClient(t, repos)
	unit := seedUnit(t, repos, "L-101", 10000, 0)

	_, err := svc.Create(ctx, &CreateSaleInput{
		ClientID:    client.ID,
		UnitIDs:     []uint{unit.ID},
		PaymentMode: models.SaleModeInstallment,
		Actor:       "admin",
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &CreateSaleInput{
		ClientID:    client.ID,
		UnitIDs:     []uint{unit.ID},
		PaymentMode: models.SaleModeInstallment,
		Actor:       "admin",
	})
	var conflict *AvailabilityConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint{unit.ID}, conflict.UnitIDs)

	// The losing attempt must not flip the unit back to available.
	current, err := repos.Unit.FindByID(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusReserved, current.Status)
}

func TestCreatePartialConflictRollsBackWonUnits(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	client := seedClient(t, repos)
	taken := seedUnit(t, repos, "L-101", 10000, 0)
	free := seedUnit(t, repos, "L-102", 12000, 0)

	_, err := svc.Create(ctx, &CreateSaleInput{
		ClientID:    client.ID,
		UnitIDs:     []uint{taken.ID},
		PaymentMode: models.SaleModeInstallment,
		Actor:       "admin",
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &CreateSaleInput{
		ClientID:    client.ID,
		UnitIDs:     []uint{taken.ID, free.ID},
		PaymentMode: models.SaleModeInstallment,
		Actor:       "admin",
	})
	var conflict *AvailabilityConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint{taken.ID}, conflict.UnitIDs)

	// The free unit won its reservation but the sale failed, so it returns.
	current, err := repos.Unit.FindByID(ctx, free.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusAvailable, current.Status)
}

func TestConfirmAdvanceGeneratesSchedule(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	client := seedClient(t, repos)
	unit := seedUnit(t, repos, "L-101", 10000, 0)

	sale, err := svc.Create(ctx, &CreateSaleInput{
		ClientID:          client.ID,
		UnitIDs:           []uint{unit.ID},
		PaymentMode:       models.SaleModeInstallment,
		ReservationAmount: 1000,
		Actor:             "admin",
	})
	require.NoError(t, err)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	confirmed, installments, err := svc.ConfirmAdvance(ctx, &ConfirmAdvanceInput{
		SaleID:      sale.ID,
		AdvancePaid: 1000,
		StartDate:   start,
		MonthCount:  8,
		Actor:       "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusInstallmentsOngoing, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	// principal = 10000 - 1000 reservation - 1000 advance
	require.Len(t, installments, 8)
	for _, inst := range installments {
		assert.Equal(t, 1000.0, inst.AmountDue)
		assert.Equal(t, confirmed.ID, inst.SaleID)
	}

	sold, err := repos.Unit.FindByID(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusSold, sold.Status)

	// The reservation already has its own ledger row, so the advance row
	// carries only the advance cash.
	payments, err := repos.Payment.FindBySale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, models.PaymentKindBigAdvance, payments[1].Kind)
	assert.Equal(t, 1000.0, payments[1].Amount)
}

func TestConfirmAdvanceCoveringEverythingCompletes(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	client := seedClient(t, repos)
	unit := seedUnit(t, repos, "L-101", 10000, 0)

	sale, err := svc.Create(ctx, &CreateSaleInput{
		ClientID:    client.ID,
		UnitIDs:     []uint{unit.ID},
		PaymentMode: models.SaleModeInstallment,
		Actor:       "admin",
	})
	require.NoError(t, err)

	confirmed, installments, err := svc.ConfirmAdvance(ctx, &ConfirmAdvanceInput{
		SaleID:      sale.ID,
		AdvancePaid: 10000,
		StartDate:   time.Now(),
		MonthCount:  12,
		Actor:       "admin",
	})
	require.NoError(t, err)
	assert.Empty(t, installments)
	assert.Equal(t, models.SaleStatusCompleted, confirmed.Status)
	assert.NotNil(t, confirmed.CompletedAt)
}

func TestConfirmAdvanceRejectsWrongModeAndState(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	client := seedClient(t, repos)
	unit := seedUnit(t, repos, "L-101", 0, 9000)

	sale, err := svc.Create(ctx, &CreateSaleInput{
		ClientID:    client.ID,
		UnitIDs:     []uint{unit.ID},
		PaymentMode: models.SaleModeFull,
		Actor:       "admin",
	})
	require.NoError(t, err)

	_, _, err = svc.ConfirmAdvance(ctx, &ConfirmAdvanceInput{
		SaleID:      sale.ID,
		AdvancePaid: 1000,
		StartDate:   time.Now(),
		MonthCount:  6,
		Actor:       "admin",
	})
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "confirm_advance", stateErr.Op)
}

func TestConfirmFullCompletesSale(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	client := seedClient(t, repos)
	unit := seedUnit(t, repos, "L-101", 0, 9000)

	sale, err := svc.Create(ctx, &CreateSaleInput{
		ClientID:          client.ID,
		UnitIDs:           []uint{unit.ID},
		PaymentMode:       models.SaleModeFull,
		ReservationAmount: 500,
		Actor:             "admin",
	})
	require.NoError(t, err)

	completed, err := svc.ConfirmFull(ctx, sale.ID, nil, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	sold, err := repos.Unit.FindByID(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusSold, sold.Status)

	// Reservation row plus a full-payment row for the remainder.
	payments, err := repos.Payment.FindBySale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, models.PaymentKindFull, payments[1].Kind)
	assert.Equal(t, 8500.0, payments[1].Amount)
}

func TestConfirmFullSplitsMultiUnitSale(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	client := seedClient(t, repos)
	unitA := seedUnit(t, repos, "L-101", 0, 9000)
	unitB := seedUnit(t, repos, "L-102", 0, 9000)

	sale, err := svc.Create(ctx, &CreateSaleInput{
		ClientID:    client.ID,
		UnitIDs:     []uint{unitA.ID, unitB.ID},
		PaymentMode: models.SaleModeFull,
		Actor:       "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, 18000.0, sale.TotalPrice)

	// Without a unit_id the operation is ambiguous.
	_, err = svc.ConfirmFull(ctx, sale.ID, nil, "admin")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	completed, err := svc.ConfirmFull(ctx, sale.ID, uintPtr(unitA.ID), "admin")
	require.NoError(t, err)
	assert.NotEqual(t, sale.ID, completed.ID)
	assert.Equal(t, models.SaleStatusCompleted, completed.Status)
	assert.Equal(t, 9000.0, completed.TotalPrice)
	assert.Equal(t, []uint{unitA.ID}, completed.UnitIDs())

	// The original sale keeps the other unit and stays open.
	original, err := svc.FindByIDWithDetails(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusAwaitingPayment, original.Status)
	assert.Equal(t, 9000.0, original.TotalPrice)
	assert.Equal(t, []uint{unitB.ID}, original.UnitIDs())

	soldA, _ := repos.Unit.FindByID(ctx, unitA.ID)
	assert.Equal(t, models.UnitStatusSold, soldA.Status)
	stillReserved, _ := repos.Unit.FindByID(ctx, unitB.ID)
	assert.Equal(t, models.UnitStatusReserved, stillReserved.Status)
}

func ongoingSale(t *testing.T, svc *SaleService, repos *repository.Repositories) *models.Sale {
	ctx := context.Background()
	client := seedClient(t, repos)
	unit := seedUnit(t, repos, "L-201", 9000, 0)

	sale, err := svc.Create(ctx, &CreateSaleInput{
		ClientID:          client.ID,
		UnitIDs:           []uint{unit.ID},
		PaymentMode:       models.SaleModeInstallment,
		ReservationAmount: 500,
		Actor:             "admin",
	})
	require.NoError(t, err)

	confirmed, installments, err := svc.ConfirmAdvance(ctx, &ConfirmAdvanceInput{
		SaleID:      sale.ID,
		AdvancePaid: 500,
		StartDate:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		MonthCount:  10,
		Actor:       "admin",
	})
	require.NoError(t, err)
	require.Len(t, installments, 10)
	return confirmed
}

func TestRecordPaymentAcrossInstallments(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	sale := ongoingSale(t, svc, repos)

	// 10 installments of 800 each; 1500 over two of them.
	result, err := svc.RecordPayment(ctx, &RecordPaymentInput{
		SaleID:        sale.ID,
		Amount:        1500,
		MonthsToApply: 2,
		Actor:         "admin",
	})
	require.NoError(t, err)
	require.Len(t, result.Touched, 2)
	assert.False(t, result.AllPaid)

	stored, err := repos.Installment.FindBySale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InstallmentStatusPaid, stored[0].Status)
	assert.Equal(t, 800.0, stored[0].AmountPaid)
	assert.Equal(t, models.InstallmentStatusPartial, stored[1].Status)
	assert.Equal(t, 700.0, stored[1].AmountPaid)
	assert.Equal(t, models.InstallmentStatusUnpaid, stored[2].Status)
}

func TestRecordPaymentIdempotentReceipt(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	sale := ongoingSale(t, svc, repos)
	receipt := "REC-1001"

	first, err := svc.RecordPayment(ctx, &RecordPaymentInput{
		SaleID:        sale.ID,
		Amount:        800,
		MonthsToApply: 1,
		ReceiptNumber: &receipt,
		Actor:         "admin",
	})
	require.NoError(t, err)
	require.Len(t, first.Touched, 1)

	// A retry with the same receipt returns the original row untouched.
	retry, err := svc.RecordPayment(ctx, &RecordPaymentInput{
		SaleID:        sale.ID,
		Amount:        800,
		MonthsToApply: 1,
		ReceiptNumber: &receipt,
		Actor:         "admin",
	})
	require.NoError(t, err)
	assert.Empty(t, retry.Touched)
	require.Len(t, retry.Payments, 1)

	stored, err := repos.Installment.FindBySale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, 800.0, stored[0].AmountPaid)
	assert.Equal(t, models.InstallmentStatusUnpaid, stored[1].Status)
}

func TestRecordPaymentSettlingEverythingCompletes(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	sale := ongoingSale(t, svc, repos)

	result, err := svc.RecordPayment(ctx, &RecordPaymentInput{
		SaleID:        sale.ID,
		Amount:        8000,
		MonthsToApply: 10,
		Actor:         "admin",
	})
	require.NoError(t, err)
	assert.True(t, result.AllPaid)

	completed, err := svc.FindByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
}

func TestRecordPaymentRequiresOngoingSale(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	client := seedClient(t, repos)
	unit := seedUnit(t, repos, "L-101", 9000, 0)

	sale, err := svc.Create(ctx, &CreateSaleInput{
		ClientID:    client.ID,
		UnitIDs:     []uint{unit.ID},
		PaymentMode: models.SaleModeInstallment,
		Actor:       "admin",
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, &RecordPaymentInput{
		SaleID: sale.ID, Amount: 800, MonthsToApply: 1, Actor: "admin",
	})
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestCancelReleasesUnitsAndDeletesSchedule(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	sale := ongoingSale(t, svc, repos)
	refund := 500.0

	cancelled, err := svc.Cancel(ctx, sale.ID, &refund, nil, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	remaining, err := repos.Installment.FindBySale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	unit, err := repos.Unit.FindByID(ctx, sale.UnitIDs()[0])
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusAvailable, unit.Status)

	payments, err := repos.Payment.FindBySale(ctx, sale.ID)
	require.NoError(t, err)
	last := payments[len(payments)-1]
	assert.Equal(t, models.PaymentKindRefund, last.Kind)
	assert.Equal(t, 500.0, last.Amount)
}

func TestCancelRejectsTerminalSale(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	sale := ongoingSale(t, svc, repos)

	_, err := svc.Cancel(ctx, sale.ID, nil, nil, "admin")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, sale.ID, nil, nil, "admin")
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestReleaseExpiredSales(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	client := seedClient(t, repos)
	expired := seedUnit(t, repos, "L-101", 9000, 0)
	fresh := seedUnit(t, repos, "L-102", 9000, 0)

	past := time.Now().AddDate(0, 0, -3)
	future := time.Now().AddDate(0, 0, 3)

	expiredSale, err := svc.Create(ctx, &CreateSaleInput{
		ClientID: client.ID, UnitIDs: []uint{expired.ID},
		PaymentMode: models.SaleModeInstallment, DeadlineDate: &past, Actor: "admin",
	})
	require.NoError(t, err)

	freshSale, err := svc.Create(ctx, &CreateSaleInput{
		ClientID: client.ID, UnitIDs: []uint{fresh.ID},
		PaymentMode: models.SaleModeInstallment, DeadlineDate: &future, Actor: "admin",
	})
	require.NoError(t, err)

	released, err := svc.ReleaseExpiredSales(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	cancelled, err := svc.FindByID(ctx, expiredSale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusCancelled, cancelled.Status)

	untouched, err := svc.FindByID(ctx, freshSale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SaleStatusAwaitingPayment, untouched.Status)

	freed, err := repos.Unit.FindByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UnitStatusAvailable, freed.Status)
}

func TestSyncLateInstallments(t *testing.T) {
	svc, repos, _ := setupSaleTest(t)
	ctx := context.Background()
	client := seedClient(t, repos)
	unit := seedUnit(t, repos, "L-101", 9000, 0)

	sale, err := svc.Create(ctx, &CreateSaleInput{
		ClientID: client.ID, UnitIDs: []uint{unit.ID},
		PaymentMode: models.SaleModeInstallment, Actor: "admin",
	})
	require.NoError(t, err)

	// Schedule started a year ago, so early installments are long overdue.
	confirmed, _, err := svc.ConfirmAdvance(ctx, &ConfirmAdvanceInput{
		SaleID: sale.ID, AdvancePaid: 1000,
		StartDate: time.Now().AddDate(-1, 0, 0), MonthCount: 8, Actor: "admin",
	})
	require.NoError(t, err)

	flagged, err := svc.SyncLateInstallments(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 8, flagged)

	stored, err := repos.Installment.FindBySale(ctx, confirmed.ID)
	require.NoError(t, err)
	for _, inst := range stored {
		assert.Equal(t, models.InstallmentStatusLate, inst.Status)
	}

	// A second run finds nothing new to flag.
	flagged, err = svc.SyncLateInstallments(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, flagged)
}
