package services

import (
	"github.com/grupoterrena/terrena-api/internal/models"
	"github.com/grupoterrena/terrena-api/pkg/money"
)

// SplitService extracts one unit out of a multi-unit sale into its own
// singleton sale, rescaling the remainder in place. All arithmetic runs on
// integer cents with largest-remainder distribution so the extracted and
// remaining shares always sum exactly to the pre-split values.
type SplitService struct{}

// NewSplitService creates a new split service
func NewSplitService() *SplitService {
	return &SplitService{}
}

// SplitResult carries the extracted singleton sale and the original sale
// rescaled in place. Installments are the original rows with amount fields
// rescaled, never regenerated.
type SplitResult struct {
	Extracted    *models.Sale
	Remaining    *models.Sale
	Installments []models.Installment
}

// Extract splits the given unit out of sale. The extracted sale takes a 1/N
// share of every monetary field; the original keeps the exact complement.
// The caller moves the SaleUnit row and persists both sales.
func (s *SplitService) Extract(sale *models.Sale, unitID uint, installments []models.Installment) (*SplitResult, error) {
	n := len(sale.SaleUnits)
	if n < 2 {
		return nil, NewValidationError("unit_id", "la venta no tiene múltiples unidades")
	}
	if !sale.HasUnit(unitID) {
		return nil, NewValidationError("unit_id", "la unidad no pertenece a la venta")
	}

	preCost := sale.TotalCost
	prePrice := sale.TotalPrice
	preProfit := sale.Profit
	preReservation := sale.ReservationAmount
	preAdvance := sale.AdvanceAmount
	preMonthly := sale.MonthlyAmount

	extCost, remCost := money.Share(preCost, 1, int64(n))
	extPrice, remPrice := money.Share(prePrice, 1, int64(n))
	extProfit, remProfit := money.Share(preProfit, 1, int64(n))
	extReservation, remReservation := money.Share(preReservation, 1, int64(n))
	extAdvance, remAdvance := money.Share(preAdvance, 1, int64(n))
	extMonthly, remMonthly := money.Share(preMonthly, 1, int64(n))

	extracted := &models.Sale{
		ClientID:          sale.ClientID,
		PaymentMode:       sale.PaymentMode,
		Status:            sale.Status,
		TotalCost:         extCost,
		TotalPrice:        extPrice,
		Profit:            extProfit,
		ReservationAmount: extReservation,
		AdvanceAmount:     extAdvance,
		AdvanceDueDate:    sale.AdvanceDueDate,
		MonthCount:        sale.MonthCount,
		MonthlyAmount:     extMonthly,
		DeadlineDate:      sale.DeadlineDate,
		Note:              sale.Note,
	}

	sale.TotalCost = remCost
	sale.TotalPrice = remPrice
	sale.Profit = remProfit
	sale.ReservationAmount = remReservation
	sale.AdvanceAmount = remAdvance
	sale.MonthlyAmount = remMonthly

	if len(installments) > 0 {
		due := make([]float64, len(installments))
		paid := make([]float64, len(installments))
		stacked := make([]float64, len(installments))
		for i := range installments {
			due[i] = installments[i].AmountDue
			paid[i] = installments[i].AmountPaid
			stacked[i] = installments[i].StackedAmount
		}
		due = money.ScaleSeries(due, int64(n-1), int64(n))
		paid = money.ScaleSeries(paid, int64(n-1), int64(n))
		stacked = money.ScaleSeries(stacked, int64(n-1), int64(n))
		for i := range installments {
			installments[i].AmountDue = due[i]
			installments[i].AmountPaid = paid[i]
			installments[i].StackedAmount = stacked[i]
		}
	}

	if !money.Equal(extracted.TotalPrice+sale.TotalPrice, prePrice) ||
		!money.Equal(extracted.TotalCost+sale.TotalCost, preCost) ||
		!money.Equal(extracted.Profit+sale.Profit, preProfit) ||
		!money.Equal(extracted.ReservationAmount+sale.ReservationAmount, preReservation) ||
		!money.Equal(extracted.AdvanceAmount+sale.AdvanceAmount, preAdvance) ||
		!money.Equal(extracted.MonthlyAmount+sale.MonthlyAmount, preMonthly) {
		return nil, NewInconsistencyError("la división de la venta %d no conserva los totales", sale.ID)
	}

	return &SplitResult{
		Extracted:    extracted,
		Remaining:    sale,
		Installments: installments,
	}, nil
}
