package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grupoterrena/terrena-api/internal/models"
	"github.com/grupoterrena/terrena-api/internal/repository"
	"github.com/grupoterrena/terrena-api/internal/statemachine"
	"gorm.io/gorm"
)

// SaleService orchestrates the sale lifecycle: creation, confirmation,
// payment recording, splitting and cancellation. Every multi-write operation
// runs inside a single database transaction.
type SaleService struct {
	repos     *repository.Repositories
	schedule  *ScheduleService
	allocator *AllocationService
	splitter  *SplitService
	auditSvc  *AuditService
}

func NewSaleService(repos *repository.Repositories, auditSvc *AuditService) *SaleService {
	return &SaleService{
		repos:     repos,
		schedule:  NewScheduleService(),
		allocator: NewAllocationService(),
		splitter:  NewSplitService(),
		auditSvc:  auditSvc,
	}
}

// FindByID gets a sale by ID
func (s *SaleService) FindByID(ctx context.Context, id uint) (*models.Sale, error) {
	sale, err := s.repos.Sale.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return sale, err
}

// FindByIDWithDetails gets a sale by ID with all nested associations preloaded
func (s *SaleService) FindByIDWithDetails(ctx context.Context, id uint) (*models.Sale, error) {
	sale, err := s.repos.Sale.FindByIDWithDetails(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return sale, err
}

func (s *SaleService) List(ctx context.Context, query *repository.SaleQuery) ([]models.Sale, int64, error) {
	return s.repos.Sale.List(ctx, query)
}

func (s *SaleService) GetStats(ctx context.Context) (*repository.SaleStats, error) {
	return s.repos.Sale.GetStats(ctx)
}

// CreateSaleInput carries the parameters of a new sale
type CreateSaleInput struct {
	ClientID          uint
	UnitIDs           []uint
	PaymentMode       string
	ReservationAmount float64
	DeadlineDate      *time.Time
	MonthCount        int
	MonthlyAmount     float64
	Note              *string
	Actor             string
}

// Create validates the unit selection, reserves the units and persists the
// sale as awaiting_payment. Reservation of the units is a conditional update
// on their current status, so two concurrent sales cannot book the same unit.
func (s *SaleService) Create(ctx context.Context, input *CreateSaleInput) (*models.Sale, error) {
	if len(input.UnitIDs) == 0 {
		return nil, NewValidationError("unit_ids", "se requiere al menos una unidad")
	}
	if input.PaymentMode != models.SaleModeFull && input.PaymentMode != models.SaleModeInstallment {
		return nil, NewValidationError("payment_mode", "modo de pago inválido")
	}
	if input.ReservationAmount < 0 {
		return nil, NewValidationError("reservation_amount", "no puede ser negativo")
	}
	if input.MonthCount > 0 && input.MonthlyAmount > 0 {
		return nil, NewValidationError("month_count", "indicar month_count o monthly_amount, no ambos")
	}

	client, err := s.repos.Client.FindByID(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var sale *models.Sale
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		units, err := tx.Unit.FindByIDs(ctx, input.UnitIDs)
		if err != nil {
			return err
		}
		if len(units) != len(input.UnitIDs) {
			return NewValidationError("unit_ids", "una o más unidades no existen")
		}

		var totalCost, totalPrice float64
		for i := range units {
			price, ok := units[i].PriceFor(input.PaymentMode)
			if !ok {
				return NewValidationError("unit_ids",
					fmt.Sprintf("la unidad %s no tiene precio para el modo %s", units[i].Number, input.PaymentMode))
			}
			totalPrice += price
			totalCost += units[i].PurchaseCost
		}
		if input.ReservationAmount > totalPrice {
			return NewValidationError("reservation_amount", "la reserva excede el precio total")
		}

		unitSync := NewUnitSyncService(tx.Unit)
		if err := unitSync.Reserve(ctx, input.UnitIDs); err != nil {
			return err
		}

		sale = &models.Sale{
			GUID:              uuid.New().String(),
			ClientID:          client.ID,
			PaymentMode:       input.PaymentMode,
			Status:            models.SaleStatusPending,
			TotalCost:         totalCost,
			TotalPrice:        totalPrice,
			Profit:            totalPrice - totalCost,
			ReservationAmount: input.ReservationAmount,
			MonthCount:        input.MonthCount,
			MonthlyAmount:     input.MonthlyAmount,
			DeadlineDate:      input.DeadlineDate,
			Note:              input.Note,
		}

		fsm := statemachine.NewSaleFSM(sale)
		if err := fsm.AwaitPayment(ctx); err != nil {
			return err
		}

		if err := tx.Sale.Create(ctx, sale); err != nil {
			return err
		}
		for i, unitID := range input.UnitIDs {
			su := &models.SaleUnit{SaleID: sale.ID, UnitID: unitID, Position: i + 1}
			if err := tx.Sale.CreateSaleUnit(ctx, su); err != nil {
				return err
			}
			sale.SaleUnits = append(sale.SaleUnits, *su)
		}

		if input.ReservationAmount > 0 {
			reservation := &models.Payment{
				ClientID:    client.ID,
				SaleID:      sale.ID,
				Amount:      input.ReservationAmount,
				Kind:        models.PaymentKindSmallAdvance,
				Description: stringPtr("Reserva"),
				PaymentDate: time.Now(),
			}
			if err := tx.Payment.Create(ctx, reservation); err != nil {
				return err
			}
			sale.Payments = append(sale.Payments, *reservation)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, input.Actor, "CREATE", "Sale", sale.ID,
		fmt.Sprintf("Venta creada para %s con %d unidad(es). Precio: %.2f", client.FullName, len(input.UnitIDs), sale.TotalPrice))

	return sale, nil
}

// ConfirmFull confirms full payment of a sale. For a multi-unit sale the
// given unit is first extracted into its own singleton sale; remaining units
// keep awaiting payment under the original sale.
func (s *SaleService) ConfirmFull(ctx context.Context, saleID uint, unitID *uint, actor string) (*models.Sale, error) {
	sale, err := s.FindByIDWithDetails(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.PaymentMode != models.SaleModeFull {
		return nil, &StateError{Entity: "Sale", Current: sale.PaymentMode, Op: "confirm_full"}
	}
	if !sale.MayConfirm() {
		return nil, &StateError{Entity: "Sale", Current: sale.Status, Op: "confirm_full"}
	}

	var target *models.Sale
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		target = sale
		if len(sale.SaleUnits) > 1 {
			if unitID == nil {
				return NewValidationError("unit_id", "se requiere unit_id para ventas con múltiples unidades")
			}
			extracted, err := s.splitOut(ctx, tx, sale, *unitID)
			if err != nil {
				return err
			}
			target = extracted
		}

		unitSync := NewUnitSyncService(tx.Unit)
		if err := unitSync.MarkSold(ctx, target.UnitIDs()); err != nil {
			return err
		}

		remaining := target.TotalPrice - target.ReservationAmount
		if remaining > 0 {
			payment := &models.Payment{
				ClientID:    target.ClientID,
				SaleID:      target.ID,
				Amount:      remaining,
				Kind:        models.PaymentKindFull,
				Description: stringPtr("Pago Total"),
				PaymentDate: time.Now(),
			}
			if err := tx.Payment.Create(ctx, payment); err != nil {
				return err
			}
		}

		fsm := statemachine.NewSaleFSM(target)
		if err := fsm.Complete(ctx); err != nil {
			return err
		}
		now := time.Now()
		target.ConfirmedAt = &now
		target.CompletedAt = &now
		return tx.Sale.Update(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor, "CONFIRM", "Sale", target.ID,
		fmt.Sprintf("Pago total confirmado. Precio: %.2f", target.TotalPrice))

	return target, nil
}

// ConfirmAdvanceInput carries the parameters of an advance confirmation
type ConfirmAdvanceInput struct {
	SaleID        uint
	AdvancePaid   float64
	StartDate     time.Time
	MonthCount    int
	MonthlyAmount float64
	UnitID        *uint
	Actor         string
}

// ConfirmAdvance confirms the advance of an installment sale, generates the
// installment schedule and moves the sale to installments_ongoing. When the
// advance covers the whole remaining price the schedule is empty and the sale
// completes directly.
func (s *SaleService) ConfirmAdvance(ctx context.Context, input *ConfirmAdvanceInput) (*models.Sale, []models.Installment, error) {
	sale, err := s.FindByIDWithDetails(ctx, input.SaleID)
	if err != nil {
		return nil, nil, err
	}
	if sale.PaymentMode != models.SaleModeInstallment {
		return nil, nil, &StateError{Entity: "Sale", Current: sale.PaymentMode, Op: "confirm_advance"}
	}
	if !sale.MayConfirm() {
		return nil, nil, &StateError{Entity: "Sale", Current: sale.Status, Op: "confirm_advance"}
	}
	if input.AdvancePaid < 0 {
		return nil, nil, NewValidationError("advance_amount", "no puede ser negativo")
	}
	if input.MonthCount > 0 && input.MonthlyAmount > 0 {
		return nil, nil, NewValidationError("month_count", "indicar month_count o monthly_amount, no ambos")
	}

	var target *models.Sale
	var installments []models.Installment
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		target = sale
		if len(sale.SaleUnits) > 1 {
			if input.UnitID == nil {
				return NewValidationError("unit_id", "se requiere unit_id para ventas con múltiples unidades")
			}
			extracted, err := s.splitOut(ctx, tx, sale, *input.UnitID)
			if err != nil {
				return err
			}
			target = extracted
		}

		// Terms from the request win over those stored at creation time.
		if input.MonthCount > 0 || input.MonthlyAmount > 0 {
			target.MonthCount = input.MonthCount
			target.MonthlyAmount = input.MonthlyAmount
		}
		target.AdvanceAmount = input.AdvancePaid

		principal := target.TotalPrice - target.ReservationAmount - input.AdvancePaid
		if principal < 0 {
			return NewValidationError("advance_amount", "el anticipo excede el precio restante")
		}

		if principal > 0 {
			installments, err = s.schedule.ForSale(target, principal, input.StartDate)
			if err != nil {
				return err
			}
			for i := range installments {
				installments[i].SaleID = target.ID
			}
			if err := tx.Installment.CreateBatch(ctx, installments); err != nil {
				return err
			}
		}

		unitSync := NewUnitSyncService(tx.Unit)
		if err := unitSync.MarkSold(ctx, target.UnitIDs()); err != nil {
			return err
		}

		// The reservation folds into the advance row only when no reservation
		// row was written at creation, so cash received is never double counted.
		advanceTotal := input.AdvancePaid
		if target.ReservationAmount > 0 && !hasPaymentOfKind(sale.Payments, models.PaymentKindSmallAdvance) {
			advanceTotal += target.ReservationAmount
		}
		if advanceTotal > 0 {
			payment := &models.Payment{
				ClientID:    target.ClientID,
				SaleID:      target.ID,
				Amount:      advanceTotal,
				Kind:        models.PaymentKindBigAdvance,
				Description: stringPtr("Prima"),
				PaymentDate: time.Now(),
			}
			if err := tx.Payment.Create(ctx, payment); err != nil {
				return err
			}
		}

		fsm := statemachine.NewSaleFSM(target)
		now := time.Now()
		target.ConfirmedAt = &now
		if len(installments) == 0 {
			if err := fsm.Complete(ctx); err != nil {
				return err
			}
			target.CompletedAt = &now
		} else {
			if err := fsm.StartInstallments(ctx); err != nil {
				return err
			}
		}
		return tx.Sale.Update(ctx, target)
	})
	if err != nil {
		return nil, nil, err
	}

	s.auditSvc.Log(ctx, input.Actor, "CONFIRM", "Sale", target.ID,
		fmt.Sprintf("Prima confirmada: %.2f, %d cuota(s)", input.AdvancePaid, len(installments)))

	return target, installments, nil
}

// RecordPaymentInput carries the parameters of an installment payment
type RecordPaymentInput struct {
	SaleID        uint
	Amount        float64
	MonthsToApply int
	PaymentDate   time.Time
	ReceiptNumber *string
	Actor         string
}

// RecordPayment allocates a payment across the sale's next unpaid
// installments. A repeated receipt number returns the original allocation
// untouched, so client retries never double-apply.
func (s *SaleService) RecordPayment(ctx context.Context, input *RecordPaymentInput) (*AllocationResult, error) {
	sale, err := s.FindByIDWithDetails(ctx, input.SaleID)
	if err != nil {
		return nil, err
	}
	if sale.Status != models.SaleStatusInstallmentsOngoing {
		return nil, &StateError{Entity: "Sale", Current: sale.Status, Op: "record_payment"}
	}

	if input.ReceiptNumber != nil && *input.ReceiptNumber != "" {
		existing, err := s.repos.Payment.FindByReceiptNumber(ctx, sale.ID, *input.ReceiptNumber)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if existing != nil {
			return &AllocationResult{Payments: []models.Payment{*existing}}, nil
		}
	}

	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	var result *AllocationResult
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		unpaid, err := tx.Installment.FindUnpaidBySale(ctx, sale.ID)
		if err != nil {
			return err
		}

		result, err = s.allocator.Apply(sale, unpaid, input.Amount, input.MonthsToApply, paymentDate, input.ReceiptNumber)
		if err != nil {
			return err
		}

		if err := tx.Installment.UpdateAmounts(ctx, result.Touched); err != nil {
			return err
		}
		for i := range result.Payments {
			if err := tx.Payment.Create(ctx, &result.Payments[i]); err != nil {
				return err
			}
		}

		if result.AllPaid {
			fsm := statemachine.NewSaleFSM(sale)
			if err := fsm.Complete(ctx); err != nil {
				return err
			}
			now := time.Now()
			sale.CompletedAt = &now
			return tx.Sale.Update(ctx, sale)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, input.Actor, "PAYMENT", "Sale", sale.ID,
		fmt.Sprintf("Pago registrado: %.2f sobre %d cuota(s)", input.Amount, len(result.Touched)))

	return result, nil
}

// Cancel cancels a sale, releasing its units. For a multi-unit sale with a
// unit_id given only that unit's share is extracted and cancelled; the
// remaining units keep their sale untouched.
func (s *SaleService) Cancel(ctx context.Context, saleID uint, refundAmount *float64, unitID *uint, actor string) (*models.Sale, error) {
	sale, err := s.FindByIDWithDetails(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if !sale.MayCancel() {
		return nil, &StateError{Entity: "Sale", Current: sale.Status, Op: "cancel"}
	}
	if refundAmount != nil && *refundAmount < 0 {
		return nil, NewValidationError("refund_amount", "no puede ser negativo")
	}

	var target *models.Sale
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		target = sale
		if len(sale.SaleUnits) > 1 && unitID != nil {
			extracted, err := s.splitOut(ctx, tx, sale, *unitID)
			if err != nil {
				return err
			}
			target = extracted
		} else {
			if err := tx.Installment.DeleteBySale(ctx, sale.ID); err != nil {
				return err
			}
		}

		unitSync := NewUnitSyncService(tx.Unit)
		if err := unitSync.Release(ctx, target.UnitIDs()); err != nil {
			return err
		}

		if refundAmount != nil && *refundAmount > 0 {
			refund := &models.Payment{
				ClientID:    target.ClientID,
				SaleID:      target.ID,
				Amount:      *refundAmount,
				Kind:        models.PaymentKindRefund,
				Description: stringPtr("Reembolso por cancelación"),
				PaymentDate: time.Now(),
			}
			if err := tx.Payment.Create(ctx, refund); err != nil {
				return err
			}
		}

		fsm := statemachine.NewSaleFSM(target)
		if err := fsm.Cancel(ctx); err != nil {
			return err
		}
		now := time.Now()
		target.CancelledAt = &now
		return tx.Sale.Update(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor, "CANCEL", "Sale", target.ID, "Venta cancelada")

	return target, nil
}

// ReleaseExpiredSales cancels sales still awaiting payment past their
// deadline, returning their units to the market. Run periodically.
func (s *SaleService) ReleaseExpiredSales(ctx context.Context, asOf time.Time) (int, error) {
	expired, err := s.repos.Sale.FindExpiredAwaitingPayment(ctx, asOf)
	if err != nil {
		return 0, err
	}

	released := 0
	for i := range expired {
		sale := &expired[i]
		err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
			if err := tx.Installment.DeleteBySale(ctx, sale.ID); err != nil {
				return err
			}
			unitSync := NewUnitSyncService(tx.Unit)
			if err := unitSync.Release(ctx, sale.UnitIDs()); err != nil {
				return err
			}
			fsm := statemachine.NewSaleFSM(sale)
			if err := fsm.Cancel(ctx); err != nil {
				return err
			}
			now := time.Now()
			sale.CancelledAt = &now
			return tx.Sale.Update(ctx, sale)
		})
		if err != nil {
			return released, err
		}
		released++
		s.auditSvc.Log(ctx, "system", "CANCEL", "Sale", sale.ID, "Venta vencida liberada automáticamente")
	}
	return released, nil
}

// SyncLateInstallments flags overdue installments as late for display. The
// stored flag is cosmetic; overdue aggregates always recompute from due_date.
func (s *SaleService) SyncLateInstallments(ctx context.Context, today time.Time) (int, error) {
	overdue, err := s.repos.Installment.FindOverdue(ctx, dateOnly(today))
	if err != nil {
		return 0, err
	}
	var ids []uint
	for i := range overdue {
		if overdue[i].Status != models.InstallmentStatusLate {
			ids = append(ids, overdue[i].ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.repos.Installment.MarkLate(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// ListPayments returns ledger entries matching the query
func (s *SaleService) ListPayments(ctx context.Context, query *repository.PaymentQuery) ([]models.Payment, int64, error) {
	return s.repos.Payment.List(ctx, query)
}

// FindOverdueInstallments returns installments past due as of the given day,
// oldest first, for the collections view.
func (s *SaleService) FindOverdueInstallments(ctx context.Context, today time.Time) ([]models.Installment, error) {
	return s.repos.Installment.FindOverdue(ctx, dateOnly(today))
}

// splitOut extracts the given unit out of a multi-unit sale into a fresh
// singleton sale inside the caller's transaction. The rescaled installments
// of the remaining sale are persisted in place.
func (s *SaleService) splitOut(ctx context.Context, tx *repository.Repositories, sale *models.Sale, unitID uint) (*models.Sale, error) {
	installments, err := tx.Installment.FindBySale(ctx, sale.ID)
	if err != nil {
		return nil, err
	}

	result, err := s.splitter.Extract(sale, unitID, installments)
	if err != nil {
		return nil, err
	}

	extracted := result.Extracted
	extracted.GUID = uuid.New().String()
	if err := tx.Sale.Create(ctx, extracted); err != nil {
		return nil, err
	}

	var moved models.SaleUnit
	kept := make([]models.SaleUnit, 0, len(sale.SaleUnits)-1)
	for _, su := range sale.SaleUnits {
		if su.UnitID == unitID {
			moved = su
		} else {
			kept = append(kept, su)
		}
	}
	if err := tx.Sale.MoveSaleUnit(ctx, moved.ID, extracted.ID); err != nil {
		return nil, err
	}
	moved.SaleID = extracted.ID
	extracted.SaleUnits = []models.SaleUnit{moved}
	sale.SaleUnits = kept

	if len(result.Installments) > 0 {
		if err := tx.Installment.UpdateAmounts(ctx, result.Installments); err != nil {
			return nil, err
		}
	}
	if err := tx.Sale.Update(ctx, sale); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, "system", "SPLIT", "Sale", sale.ID,
		fmt.Sprintf("Unidad %d extraída a la venta %d", unitID, extracted.ID))

	return extracted, nil
}

func hasPaymentOfKind(payments []models.Payment, kind string) bool {
	for i := range payments {
		if payments[i].Kind == kind {
			return true
		}
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// stringPtr returns a pointer to a string
func stringPtr(s string) *string {
	return &s
}
