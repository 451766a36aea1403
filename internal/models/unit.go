package models

import (
	"time"
)

// Unit represents a sellable land piece or house
type Unit struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Number           string    `gorm:"not null;uniqueIndex" json:"number"`
	Area             float64   `gorm:"type:decimal(10,2);not null" json:"area"`
	PurchaseCost     float64   `gorm:"type:decimal(15,2);not null" json:"purchase_cost"`
	FullPrice        *float64  `gorm:"type:decimal(15,2)" json:"full_price"`
	InstallmentPrice *float64  `gorm:"type:decimal(15,2)" json:"installment_price"`
	Status           string    `gorm:"default:available;index" json:"status"`
	Address          *string   `json:"address"`
	Note             *string   `gorm:"type:text" json:"note"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName specifies the table name for Unit
func (Unit) TableName() string {
	return "units"
}

// Unit status constants
const (
	UnitStatusAvailable = "available"
	UnitStatusReserved  = "reserved"
	UnitStatusSold      = "sold"
)

// IsAvailable returns true if the unit can be reserved
func (u *Unit) IsAvailable() bool {
	return u.Status == UnitStatusAvailable
}

// PriceFor returns the unit price for the given payment mode.
// The second return value is false when the unit has no price for that mode.
func (u *Unit) PriceFor(mode string) (float64, bool) {
	switch mode {
	case SaleModeFull:
		if u.FullPrice != nil && *u.FullPrice > 0 {
			return *u.FullPrice, true
		}
	case SaleModeInstallment:
		if u.InstallmentPrice != nil && *u.InstallmentPrice > 0 {
			return *u.InstallmentPrice, true
		}
	}
	return 0, false
}

// UnitResponse is the JSON response format for units
type UnitResponse struct {
	ID               uint     `json:"id"`
	Number           string   `json:"number"`
	Area             float64  `json:"area"`
	PurchaseCost     float64  `json:"purchase_cost"`
	FullPrice        *float64 `json:"full_price"`
	InstallmentPrice *float64 `json:"installment_price"`
	Status           string   `json:"status"`
	Address          *string  `json:"address"`
	Note             *string  `json:"note"`
}

// ToResponse converts Unit to UnitResponse
func (u *Unit) ToResponse() UnitResponse {
	return UnitResponse{
		ID:               u.ID,
		Number:           u.Number,
		Area:             u.Area,
		PurchaseCost:     u.PurchaseCost,
		FullPrice:        u.FullPrice,
		InstallmentPrice: u.InstallmentPrice,
		Status:           u.Status,
		Address:          u.Address,
		Note:             u.Note,
	}
}
