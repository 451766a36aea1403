package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Client      ClientRepository
	Unit        UnitRepository
	Sale        SaleRepository
	Installment InstallmentRepository
	Payment     PaymentRepository

	db *gorm.DB
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Client:      NewClientRepository(db),
		Unit:        NewUnitRepository(db),
		Sale:        NewSaleRepository(db),
		Installment: NewInstallmentRepository(db),
		Payment:     NewPaymentRepository(db),
		db:          db,
	}
}

// Transaction runs fn against a transaction-bound repository set. Multi-step
// sequences (advance confirmation, cancellation, splitting) use this so a
// partial failure rolls back instead of leaving half-written state.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// ListQuery holds common pagination, sorting and filter parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}
