package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grupoterrena/terrena-api/internal/models"
	"github.com/grupoterrena/terrena-api/pkg/money"
)

func scheduleTotal(installments []models.Installment) float64 {
	var c int64
	for _, inst := range installments {
		c += money.Cents(inst.AmountDue)
	}
	return money.FromCents(c)
}

func TestFromMonthCountEvenDivision(t *testing.T) {
	svc := NewScheduleService()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	installments, err := svc.FromMonthCount(8000, 10, start)
	require.NoError(t, err)
	require.Len(t, installments, 10)

	for i, inst := range installments {
		assert.Equal(t, 800.0, inst.AmountDue)
		assert.Equal(t, i+1, inst.Sequence)
		assert.Equal(t, start.AddDate(0, i, 0), inst.DueDate)
		assert.Equal(t, models.InstallmentStatusUnpaid, inst.Status)
	}
	assert.Equal(t, 8000.0, scheduleTotal(installments))
}

func TestFromMonthCountRemainderOnLast(t *testing.T) {
	svc := NewScheduleService()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	installments, err := svc.FromMonthCount(8000, 7, start)
	require.NoError(t, err)
	require.Len(t, installments, 7)

	for _, inst := range installments[:6] {
		assert.Equal(t, 1142.86, inst.AmountDue)
	}
	assert.Equal(t, 1142.84, installments[6].AmountDue)
	assert.Equal(t, 8000.0, scheduleTotal(installments))
}

func TestFromMonthCountValidation(t *testing.T) {
	svc := NewScheduleService()
	start := time.Now()

	_, err := svc.FromMonthCount(8000, 0, start)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "month_count", ve.Field)

	// So many parts that the last one would be zero or negative.
	_, err = svc.FromMonthCount(0.05, 100, start)
	require.ErrorAs(t, err, &ve)
}

func TestFromMonthCountZeroPrincipal(t *testing.T) {
	svc := NewScheduleService()

	installments, err := svc.FromMonthCount(0, 12, time.Now())
	require.NoError(t, err)
	assert.Empty(t, installments)
}

func TestFromMonthlyAmountExactDivision(t *testing.T) {
	svc := NewScheduleService()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	installments, err := svc.FromMonthlyAmount(8000, 800, start)
	require.NoError(t, err)
	require.Len(t, installments, 10)
	assert.Equal(t, 800.0, installments[9].AmountDue)
	assert.Equal(t, 8000.0, scheduleTotal(installments))
}

func TestFromMonthlyAmountShortFinal(t *testing.T) {
	svc := NewScheduleService()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	installments, err := svc.FromMonthlyAmount(8000, 1500, start)
	require.NoError(t, err)
	require.Len(t, installments, 6)

	for _, inst := range installments[:5] {
		assert.Equal(t, 1500.0, inst.AmountDue)
	}
	assert.Equal(t, 500.0, installments[5].AmountDue)
	assert.Equal(t, 8000.0, scheduleTotal(installments))
}

func TestFromMonthlyAmountValidation(t *testing.T) {
	svc := NewScheduleService()

	_, err := svc.FromMonthlyAmount(8000, 0, time.Now())
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "monthly_amount", ve.Field)
}

func TestForSaleDispatch(t *testing.T) {
	svc := NewScheduleService()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	byCount := &models.Sale{MonthCount: 4}
	installments, err := svc.ForSale(byCount, 1000, start)
	require.NoError(t, err)
	assert.Len(t, installments, 4)

	byAmount := &models.Sale{MonthlyAmount: 250}
	installments, err = svc.ForSale(byAmount, 1000, start)
	require.NoError(t, err)
	assert.Len(t, installments, 4)

	_, err = svc.ForSale(&models.Sale{}, 1000, start)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}
