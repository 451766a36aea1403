package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOutstanding(t *testing.T) {
	inst := Installment{AmountDue: 800, AmountPaid: 300, StackedAmount: 50}
	assert.Equal(t, 550.0, inst.Outstanding())

	settled := Installment{AmountDue: 800, AmountPaid: 800}
	assert.Equal(t, 0.0, settled.Outstanding())
}

func TestIsOverdueAtBoundary(t *testing.T) {
	today := time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC)

	dueToday := Installment{DueDate: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), Status: InstallmentStatusUnpaid}
	assert.False(t, dueToday.IsOverdueAt(today), "due today is not overdue")

	dueYesterday := Installment{DueDate: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), Status: InstallmentStatusUnpaid}
	assert.True(t, dueYesterday.IsOverdueAt(today))

	dueTomorrow := Installment{DueDate: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), Status: InstallmentStatusUnpaid}
	assert.False(t, dueTomorrow.IsOverdueAt(today))
}

func TestIsOverdueAtIgnoresTimeOfDay(t *testing.T) {
	// A due date stored with a late timestamp still counts as that calendar day.
	inst := Installment{DueDate: time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC), Status: InstallmentStatusUnpaid}
	assert.False(t, inst.IsOverdueAt(time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)))
	assert.True(t, inst.IsOverdueAt(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)))
}

func TestPaidNeverOverdue(t *testing.T) {
	inst := Installment{
		DueDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:  InstallmentStatusPaid,
	}
	assert.False(t, inst.IsOverdueAt(time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, inst.OverdueDaysAt(time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)))
}

func TestOverdueDaysAt(t *testing.T) {
	today := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	inst := Installment{DueDate: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), Status: InstallmentStatusPartial}
	assert.Equal(t, 10, inst.OverdueDaysAt(today))

	dueToday := Installment{DueDate: today, Status: InstallmentStatusUnpaid}
	assert.Equal(t, 0, dueToday.OverdueDaysAt(today))
}

func TestToResponseAt(t *testing.T) {
	today := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	inst := Installment{
		ID:            4,
		SaleID:        2,
		Sequence:      3,
		AmountDue:     800,
		AmountPaid:    300,
		StackedAmount: 25,
		DueDate:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Status:        InstallmentStatusLate,
	}

	resp := inst.ToResponseAt(today)
	assert.Equal(t, 525.0, resp.Outstanding)
	assert.True(t, resp.IsOverdue)
	assert.Equal(t, 29, resp.OverdueDays)
	assert.Equal(t, InstallmentStatusLate, resp.Status)
}
