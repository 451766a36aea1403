package repository

import (
	"context"

	"github.com/grupoterrena/terrena-api/internal/models"
	"gorm.io/gorm"
)

// PaymentRepository defines the interface for payment data access.
// Payments are an append-only ledger; there is no update or delete.
type PaymentRepository interface {
	FindBySale(ctx context.Context, saleID uint) ([]models.Payment, error)
	FindByReceiptNumber(ctx context.Context, saleID uint, receiptNumber string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	List(ctx context.Context, query *PaymentQuery) ([]models.Payment, int64, error)
}

// PaymentQuery extends ListQuery with payment-specific filters
type PaymentQuery struct {
	*ListQuery
	SaleID   uint
	ClientID uint
	Kind     string
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) FindBySale(ctx context.Context, saleID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("payment_date ASC, id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) FindByReceiptNumber(ctx context.Context, saleID uint, receiptNumber string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("sale_id = ? AND receipt_number = ?", saleID, receiptNumber).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) List(ctx context.Context, query *PaymentQuery) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Payment{})

	if query.SaleID > 0 {
		db = db.Where("payments.sale_id = ?", query.SaleID)
	}
	if query.ClientID > 0 {
		db = db.Where("payments.client_id = ?", query.ClientID)
	}
	if query.Kind != "" {
		db = db.Where("payments.kind = ?", query.Kind)
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN clients ON clients.id = payments.client_id").
			Where("clients.full_name ILIKE ? OR payments.receipt_number ILIKE ?", search, search)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("payments.payment_date DESC, payments.id DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Client").Find(&payments).Error
	return payments, total, err
}
