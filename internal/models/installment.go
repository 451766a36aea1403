package models

import (
	"time"
)

// Installment is one scheduled monthly obligation within an installment-mode
// sale. Amount fields are mutated only by the payment allocator and rescaled
// in place by the split engine.
type Installment struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	SaleID        uint       `gorm:"not null;index" json:"sale_id"`
	Sequence      int        `gorm:"not null" json:"sequence"`
	AmountDue     float64    `gorm:"type:decimal(15,2);not null" json:"amount_due"`
	AmountPaid    float64    `gorm:"type:decimal(15,2);default:0" json:"amount_paid"`
	StackedAmount float64    `gorm:"type:decimal(15,2);default:0" json:"stacked_amount"`
	DueDate       time.Time  `gorm:"type:date;not null;index" json:"due_date"`
	Status        string     `gorm:"default:unpaid;not null;index" json:"status"`
	PaidAt        *time.Time `json:"paid_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Associations
	Sale Sale `gorm:"foreignKey:SaleID" json:"sale,omitempty"`
}

// TableName specifies the table name for Installment
func (Installment) TableName() string {
	return "installments"
}

// Installment status constants. "late" is kept in sync for display only;
// overdue truth is always derived from the due date.
const (
	InstallmentStatusUnpaid  = "unpaid"
	InstallmentStatusPartial = "partial"
	InstallmentStatusPaid    = "paid"
	InstallmentStatusLate    = "late"
)

// Outstanding returns the amount still owed on the installment
func (i *Installment) Outstanding() float64 {
	return i.AmountDue + i.StackedAmount - i.AmountPaid
}

// IsSettled returns true once the installment is fully covered
func (i *Installment) IsSettled() bool {
	return i.Status == InstallmentStatusPaid
}

// IsOverdueAt reports whether the installment is overdue as of the given day.
// The comparison is date-only; an installment due exactly today is not
// overdue. The stored status is never consulted beyond the paid check.
func (i *Installment) IsOverdueAt(today time.Time) bool {
	if i.Status == InstallmentStatusPaid {
		return false
	}
	return dateOnly(i.DueDate).Before(dateOnly(today))
}

// OverdueDaysAt returns the number of whole days the installment is overdue
// as of the given day, or 0 when it is not overdue.
func (i *Installment) OverdueDaysAt(today time.Time) int {
	if !i.IsOverdueAt(today) {
		return 0
	}
	return int(dateOnly(today).Sub(dateOnly(i.DueDate)).Hours() / 24)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// InstallmentResponse is the JSON response format for installments
type InstallmentResponse struct {
	ID            uint       `json:"id"`
	SaleID        uint       `json:"sale_id"`
	Sequence      int        `json:"sequence"`
	AmountDue     float64    `json:"amount_due"`
	AmountPaid    float64    `json:"amount_paid"`
	StackedAmount float64    `json:"stacked_amount"`
	Outstanding   float64    `json:"outstanding"`
	DueDate       time.Time  `json:"due_date"`
	Status        string     `json:"status"`
	IsOverdue     bool       `json:"is_overdue"`
	OverdueDays   int        `json:"overdue_days"`
	PaidAt        *time.Time `json:"paid_at"`
}

// ToResponse converts Installment to InstallmentResponse. Overdue fields are
// computed against the current date at conversion time.
func (i *Installment) ToResponse() InstallmentResponse {
	today := time.Now()
	return i.ToResponseAt(today)
}

// ToResponseAt converts Installment to InstallmentResponse with an explicit
// "today" for deterministic output.
func (i *Installment) ToResponseAt(today time.Time) InstallmentResponse {
	return InstallmentResponse{
		ID:            i.ID,
		SaleID:        i.SaleID,
		Sequence:      i.Sequence,
		AmountDue:     i.AmountDue,
		AmountPaid:    i.AmountPaid,
		StackedAmount: i.StackedAmount,
		Outstanding:   i.Outstanding(),
		DueDate:       i.DueDate,
		Status:        i.Status,
		IsOverdue:     i.IsOverdueAt(today),
		OverdueDays:   i.OverdueDaysAt(today),
		PaidAt:        i.PaidAt,
	}
}
