package models

import (
	"time"
)

// Payment is an immutable ledger entry: one row per amount of money that
// changed hands. Rows are append-only; corrections are expressed as refunds.
type Payment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ClientID      uint      `gorm:"not null;index" json:"client_id"`
	SaleID        uint      `gorm:"not null;index" json:"sale_id"`
	InstallmentID *uint     `gorm:"index" json:"installment_id"`
	Amount        float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Kind          string    `gorm:"not null;index" json:"kind"`
	ReceiptNumber *string   `gorm:"index" json:"receipt_number"`
	Description   *string   `json:"description"`
	PaymentDate   time.Time `gorm:"type:date;not null;index" json:"payment_date"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`

	// Associations
	Client      Client       `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Sale        Sale         `gorm:"foreignKey:SaleID" json:"sale,omitempty"`
	Installment *Installment `gorm:"foreignKey:InstallmentID" json:"installment,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// Payment kind constants
const (
	PaymentKindSmallAdvance = "small_advance"
	PaymentKindBigAdvance   = "big_advance"
	PaymentKindInstallment  = "installment"
	PaymentKindFull         = "full"
	PaymentKindRefund       = "refund"
)

// IsRefund returns true when the row represents money flowing back to the
// client. Refunds must never be summed into cash-received aggregates.
func (p *Payment) IsRefund() bool {
	return p.Kind == PaymentKindRefund
}

// PaymentResponse is the JSON response format for payments
type PaymentResponse struct {
	ID            uint      `json:"id"`
	ClientID      uint      `json:"client_id"`
	SaleID        uint      `json:"sale_id"`
	InstallmentID *uint     `json:"installment_id,omitempty"`
	Amount        float64   `json:"amount"`
	Kind          string    `json:"kind"`
	ReceiptNumber *string   `json:"receipt_number,omitempty"`
	Description   *string   `json:"description"`
	PaymentDate   time.Time `json:"payment_date"`
	CreatedAt     time.Time `json:"created_at"`
	ClientName    string    `json:"client_name,omitempty"`
}

// ToResponse converts Payment to PaymentResponse
func (p *Payment) ToResponse() PaymentResponse {
	resp := PaymentResponse{
		ID:            p.ID,
		ClientID:      p.ClientID,
		SaleID:        p.SaleID,
		InstallmentID: p.InstallmentID,
		Amount:        p.Amount,
		Kind:          p.Kind,
		ReceiptNumber: p.ReceiptNumber,
		Description:   p.Description,
		PaymentDate:   p.PaymentDate,
		CreatedAt:     p.CreatedAt,
	}
	if p.Client.ID != 0 {
		resp.ClientName = p.Client.FullName
	}
	return resp
}
