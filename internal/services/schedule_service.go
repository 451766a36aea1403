package services

import (
	"time"

	"github.com/grupoterrena/terrena-api/internal/models"
	"github.com/grupoterrena/terrena-api/pkg/money"
)

// ScheduleService builds installment schedules for installment-mode sales.
// It is pure: no repository access, no clock reads.
type ScheduleService struct{}

// NewScheduleService creates a new schedule service
func NewScheduleService() *ScheduleService {
	return &ScheduleService{}
}

// FromMonthCount builds a schedule of monthCount equal installments over the
// principal. Each installment is the rounded even share; the last one absorbs
// the rounding difference so the schedule sums exactly to the principal.
func (s *ScheduleService) FromMonthCount(principal float64, monthCount int, startDate time.Time) ([]models.Installment, error) {
	if monthCount <= 0 {
		return nil, NewValidationError("month_count", "debe ser mayor que cero")
	}
	if money.Round(principal) <= 0 {
		return []models.Installment{}, nil
	}

	per := money.EvenInstallment(principal, monthCount)
	last := money.LastInstallment(principal, per, monthCount)
	if per <= 0 || last <= 0 {
		return nil, NewValidationError("month_count", "demasiadas cuotas para el monto financiado")
	}

	installments := make([]models.Installment, 0, monthCount)
	for i := 0; i < monthCount; i++ {
		amount := per
		if i == monthCount-1 {
			amount = last
		}
		installments = append(installments, models.Installment{
			Sequence:  i + 1,
			AmountDue: amount,
			DueDate:   startDate.AddDate(0, i, 0),
			Status:    models.InstallmentStatusUnpaid,
		})
	}
	return installments, nil
}

// FromMonthlyAmount builds a schedule of installments of the given monthly
// amount until the principal is covered. The final installment carries the
// remainder and is never larger than the monthly amount.
func (s *ScheduleService) FromMonthlyAmount(principal, monthlyAmount float64, startDate time.Time) ([]models.Installment, error) {
	if money.Round(monthlyAmount) <= 0 {
		return nil, NewValidationError("monthly_amount", "debe ser mayor que cero")
	}
	if money.Round(principal) <= 0 {
		return []models.Installment{}, nil
	}

	principalC := money.Cents(principal)
	monthlyC := money.Cents(monthlyAmount)

	n := int(principalC / monthlyC)
	lastC := principalC - int64(n)*monthlyC
	if lastC > 0 {
		n++
	} else {
		lastC = monthlyC
	}

	installments := make([]models.Installment, 0, n)
	for i := 0; i < n; i++ {
		amountC := monthlyC
		if i == n-1 {
			amountC = lastC
		}
		installments = append(installments, models.Installment{
			Sequence:  i + 1,
			AmountDue: money.FromCents(amountC),
			DueDate:   startDate.AddDate(0, i, 0),
			Status:    models.InstallmentStatusUnpaid,
		})
	}
	return installments, nil
}

// ForSale builds the schedule a sale calls for based on its stored terms.
// Principal is the installment price minus reservation and advance already
// committed up front.
func (s *ScheduleService) ForSale(sale *models.Sale, principal float64, startDate time.Time) ([]models.Installment, error) {
	if sale.MonthCount > 0 {
		return s.FromMonthCount(principal, sale.MonthCount, startDate)
	}
	if sale.MonthlyAmount > 0 {
		return s.FromMonthlyAmount(principal, sale.MonthlyAmount, startDate)
	}
	return nil, NewValidationError("month_count", "se requiere month_count o monthly_amount")
}
