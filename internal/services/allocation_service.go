package services

import (
	"time"

	"github.com/grupoterrena/terrena-api/internal/models"
	"github.com/grupoterrena/terrena-api/pkg/money"
)

// AllocationService distributes a single payment amount across the next
// unpaid installments of a sale, in sequence order. It is pure: the caller
// persists the mutated installments and the produced ledger rows inside its
// own transaction.
type AllocationService struct{}

// NewAllocationService creates a new allocation service
func NewAllocationService() *AllocationService {
	return &AllocationService{}
}

// AllocationResult carries the outcome of one allocation pass
type AllocationResult struct {
	Touched  []models.Installment
	Payments []models.Payment
	AllPaid  bool
}

// Apply consumes amount against the first monthsToApply unpaid installments.
// Every cent of the input lands on exactly one installment and no installment
// is ever paid past amount_due + stacked_amount. Amounts that exceed the
// selected installments' combined outstanding are rejected rather than
// silently dropped.
func (s *AllocationService) Apply(sale *models.Sale, unpaid []models.Installment, amount float64, monthsToApply int, paymentDate time.Time, receiptNumber *string) (*AllocationResult, error) {
	if money.Round(amount) <= 0 {
		return nil, NewValidationError("amount", "debe ser mayor que cero")
	}
	if len(unpaid) == 0 {
		return nil, NewValidationError("sale_id", "la venta no tiene cuotas pendientes")
	}
	if monthsToApply <= 0 {
		return nil, NewValidationError("months_to_apply", "debe ser mayor que cero")
	}
	if monthsToApply > len(unpaid) {
		monthsToApply = len(unpaid)
	}

	selected := unpaid[:monthsToApply]

	var capacityC int64
	for i := range selected {
		capacityC += money.Cents(selected[i].Outstanding())
	}
	remainingC := money.Cents(amount)
	if remainingC > capacityC {
		return nil, NewValidationError("amount", "el monto excede el saldo pendiente de las cuotas seleccionadas")
	}

	result := &AllocationResult{}
	for i := range selected {
		if remainingC <= 0 {
			break
		}
		inst := &selected[i]

		outstandingC := money.Cents(inst.Outstanding())
		appliedC := remainingC
		if appliedC > outstandingC {
			appliedC = outstandingC
		}
		remainingC -= appliedC

		applied := money.FromCents(appliedC)
		inst.AmountPaid = money.FromCents(money.Cents(inst.AmountPaid) + appliedC)
		switch {
		case money.Cents(inst.AmountPaid) >= money.Cents(inst.AmountDue)+money.Cents(inst.StackedAmount):
			inst.Status = models.InstallmentStatusPaid
			paidAt := paymentDate
			inst.PaidAt = &paidAt
		case inst.AmountPaid > 0:
			inst.Status = models.InstallmentStatusPartial
		}

		installmentID := inst.ID
		result.Touched = append(result.Touched, *inst)
		result.Payments = append(result.Payments, models.Payment{
			ClientID:      sale.ClientID,
			SaleID:        sale.ID,
			InstallmentID: &installmentID,
			Amount:        applied,
			Kind:          models.PaymentKindInstallment,
			ReceiptNumber: receiptNumber,
			PaymentDate:   paymentDate,
		})
	}

	allSettled := true
	for i := range unpaid {
		if unpaid[i].Status != models.InstallmentStatusPaid {
			allSettled = false
			break
		}
	}
	result.AllPaid = allSettled

	return result, nil
}
