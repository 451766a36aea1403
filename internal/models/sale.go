package models

import (
	"time"
)

// Sale represents a sale of one or more units to a client
type Sale struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	GUID              string     `gorm:"uniqueIndex;not null" json:"guid"`
	ClientID          uint       `gorm:"not null;index" json:"client_id"`
	PaymentMode       string     `gorm:"not null" json:"payment_mode"`
	Status            string     `gorm:"default:pending;index" json:"status"`
	TotalCost         float64    `gorm:"type:decimal(15,2);not null" json:"total_cost"`
	TotalPrice        float64    `gorm:"type:decimal(15,2);not null" json:"total_price"`
	Profit            float64    `gorm:"type:decimal(15,2);not null" json:"profit"`
	ReservationAmount float64    `gorm:"type:decimal(15,2);default:0" json:"reservation_amount"`
	AdvanceAmount     float64    `gorm:"type:decimal(15,2);default:0" json:"advance_amount"`
	AdvanceDueDate    *time.Time `gorm:"type:date" json:"advance_due_date"`
	MonthCount        int        `gorm:"default:0" json:"month_count"`
	MonthlyAmount     float64    `gorm:"type:decimal(15,2);default:0" json:"monthly_amount"`
	DeadlineDate      *time.Time `gorm:"type:date;index" json:"deadline_date"`
	Note              *string    `gorm:"type:text" json:"note"`
	ConfirmedAt       *time.Time `json:"confirmed_at"`
	CompletedAt       *time.Time `json:"completed_at"`
	CancelledAt       *time.Time `json:"cancelled_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Associations
	Client       Client        `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	SaleUnits    []SaleUnit    `gorm:"foreignKey:SaleID" json:"sale_units,omitempty"`
	Installments []Installment `gorm:"foreignKey:SaleID" json:"installments,omitempty"`
	Payments     []Payment     `gorm:"foreignKey:SaleID" json:"payments,omitempty"`
}

// TableName specifies the table name for Sale
func (Sale) TableName() string {
	return "sales"
}

// Sale status constants
const (
	SaleStatusPending             = "pending"
	SaleStatusAwaitingPayment     = "awaiting_payment"
	SaleStatusInstallmentsOngoing = "installments_ongoing"
	SaleStatusCompleted           = "completed"
	SaleStatusCancelled           = "cancelled"
)

// Payment mode constants
const (
	SaleModeFull        = "full"
	SaleModeInstallment = "installment"
)

// MayAwaitPayment returns true if the sale can move to awaiting_payment
func (s *Sale) MayAwaitPayment() bool {
	return s.Status == SaleStatusPending
}

// MayConfirm returns true if a full or advance confirmation is allowed
func (s *Sale) MayConfirm() bool {
	return s.Status == SaleStatusAwaitingPayment
}

// MayStartInstallments returns true if the sale can move to installments_ongoing
func (s *Sale) MayStartInstallments() bool {
	return s.Status == SaleStatusAwaitingPayment
}

// MayComplete returns true if the sale can be completed
func (s *Sale) MayComplete() bool {
	return s.Status == SaleStatusAwaitingPayment || s.Status == SaleStatusInstallmentsOngoing
}

// MayCancel returns true if the sale can be cancelled
func (s *Sale) MayCancel() bool {
	return s.Status != SaleStatusCompleted && s.Status != SaleStatusCancelled
}

// IsActive returns true for any non-cancelled sale; a unit may belong to at
// most one active sale at a time.
func (s *Sale) IsActive() bool {
	return s.Status != SaleStatusCancelled
}

// Units returns the units of the sale in position order.
// SaleUnits must be preloaded with their Unit association.
func (s *Sale) Units() []Unit {
	units := make([]Unit, 0, len(s.SaleUnits))
	for _, su := range s.SaleUnits {
		units = append(units, su.Unit)
	}
	return units
}

// UnitIDs returns the unit IDs of the sale in position order
func (s *Sale) UnitIDs() []uint {
	ids := make([]uint, 0, len(s.SaleUnits))
	for _, su := range s.SaleUnits {
		ids = append(ids, su.UnitID)
	}
	return ids
}

// HasUnit returns true if the given unit belongs to the sale
func (s *Sale) HasUnit(unitID uint) bool {
	for _, su := range s.SaleUnits {
		if su.UnitID == unitID {
			return true
		}
	}
	return false
}

// CashReceived sums all money received for the sale. Refunds represent money
// flowing back to the client and are never counted.
func (s *Sale) CashReceived() float64 {
	var total float64
	for _, p := range s.Payments {
		if p.Kind == PaymentKindRefund {
			continue
		}
		total += p.Amount
	}
	return total
}

// SaleResponse is the JSON response format for sales
type SaleResponse struct {
	ID                uint                  `json:"id"`
	GUID              string                `json:"guid"`
	ClientID          uint                  `json:"client_id"`
	ClientName        string                `json:"client_name,omitempty"`
	ClientIdentity    string                `json:"client_identity,omitempty"`
	PaymentMode       string                `json:"payment_mode"`
	Status            string                `json:"status"`
	TotalCost         float64               `json:"total_cost"`
	TotalPrice        float64               `json:"total_price"`
	Profit            float64               `json:"profit"`
	ReservationAmount float64               `json:"reservation_amount"`
	AdvanceAmount     float64               `json:"advance_amount"`
	AdvanceDueDate    *time.Time            `json:"advance_due_date"`
	MonthCount        int                   `json:"month_count"`
	MonthlyAmount     float64               `json:"monthly_amount"`
	DeadlineDate      *time.Time            `json:"deadline_date"`
	CashReceived      float64               `json:"cash_received"`
	Note              *string               `json:"note"`
	ConfirmedAt       *time.Time            `json:"confirmed_at"`
	CompletedAt       *time.Time            `json:"completed_at"`
	CancelledAt       *time.Time            `json:"cancelled_at"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	Units             []UnitResponse        `json:"units"`
	Installments      []InstallmentResponse `json:"installments,omitempty"`
	Payments          []PaymentResponse     `json:"payments,omitempty"`
}

// ToResponse converts Sale to SaleResponse
func (s *Sale) ToResponse() SaleResponse {
	resp := SaleResponse{
		ID:                s.ID,
		GUID:              s.GUID,
		ClientID:          s.ClientID,
		PaymentMode:       s.PaymentMode,
		Status:            s.Status,
		TotalCost:         s.TotalCost,
		TotalPrice:        s.TotalPrice,
		Profit:            s.Profit,
		ReservationAmount: s.ReservationAmount,
		AdvanceAmount:     s.AdvanceAmount,
		AdvanceDueDate:    s.AdvanceDueDate,
		MonthCount:        s.MonthCount,
		MonthlyAmount:     s.MonthlyAmount,
		DeadlineDate:      s.DeadlineDate,
		CashReceived:      s.CashReceived(),
		Note:              s.Note,
		ConfirmedAt:       s.ConfirmedAt,
		CompletedAt:       s.CompletedAt,
		CancelledAt:       s.CancelledAt,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}

	if s.Client.ID != 0 {
		resp.ClientName = s.Client.FullName
		resp.ClientIdentity = maskIdentity(s.Client.Identity)
	}

	for _, u := range s.Units() {
		resp.Units = append(resp.Units, u.ToResponse())
	}
	for _, inst := range s.Installments {
		resp.Installments = append(resp.Installments, inst.ToResponse())
	}
	for _, p := range s.Payments {
		resp.Payments = append(resp.Payments, p.ToResponse())
	}

	return resp
}

// SaleUnit links a unit to a sale, keeping the ordered unit set
type SaleUnit struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	SaleID   uint `gorm:"not null;index" json:"sale_id"`
	UnitID   uint `gorm:"not null;index" json:"unit_id"`
	Position int  `gorm:"not null" json:"position"`

	// Associations
	Unit Unit `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
}

// TableName specifies the table name for SaleUnit
func (SaleUnit) TableName() string {
	return "sale_units"
}
