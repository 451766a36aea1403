package repository

import (
	"context"
	"time"

	"github.com/grupoterrena/terrena-api/internal/models"
	"gorm.io/gorm"
)

// InstallmentRepository defines the interface for installment data access
type InstallmentRepository interface {
	FindBySale(ctx context.Context, saleID uint) ([]models.Installment, error)
	FindUnpaidBySale(ctx context.Context, saleID uint) ([]models.Installment, error)
	CreateBatch(ctx context.Context, installments []models.Installment) error
	UpdateAmounts(ctx context.Context, installments []models.Installment) error
	DeleteBySale(ctx context.Context, saleID uint) error
	FindOverdue(ctx context.Context, asOf time.Time) ([]models.Installment, error)
	MarkLate(ctx context.Context, ids []uint) error
}

type installmentRepository struct {
	db *gorm.DB
}

// NewInstallmentRepository creates a new installment repository
func NewInstallmentRepository(db *gorm.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) FindBySale(ctx context.Context, saleID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("sequence ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) FindUnpaidBySale(ctx context.Context, saleID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Where("sale_id = ? AND status <> ?", saleID, models.InstallmentStatusPaid).
		Order("sequence ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) CreateBatch(ctx context.Context, installments []models.Installment) error {
	if len(installments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&installments).Error
}

// UpdateAmounts persists amount and status columns for each installment in one pass.
func (r *installmentRepository) UpdateAmounts(ctx context.Context, installments []models.Installment) error {
	for i := range installments {
		err := r.db.WithContext(ctx).Model(&models.Installment{}).
			Where("id = ?", installments[i].ID).
			Updates(map[string]interface{}{
				"amount_due":     installments[i].AmountDue,
				"amount_paid":    installments[i].AmountPaid,
				"stacked_amount": installments[i].StackedAmount,
				"status":         installments[i].Status,
				"paid_at":        installments[i].PaidAt,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *installmentRepository) DeleteBySale(ctx context.Context, saleID uint) error {
	return r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Delete(&models.Installment{}).Error
}

// FindOverdue returns installments past due as of the given date on active sales.
func (r *installmentRepository) FindOverdue(ctx context.Context, asOf time.Time) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Joins("JOIN sales ON sales.id = installments.sale_id").
		Where("installments.status IN ? AND installments.due_date < ?",
			[]string{models.InstallmentStatusUnpaid, models.InstallmentStatusPartial, models.InstallmentStatusLate}, asOf).
		Where("sales.status = ?", models.SaleStatusInstallmentsOngoing).
		Preload("Sale.Client").
		Order("installments.due_date ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) MarkLate(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Installment{}).
		Where("id IN ? AND status IN ?", ids,
			[]string{models.InstallmentStatusUnpaid, models.InstallmentStatusPartial}).
		Update("status", models.InstallmentStatusLate).Error
}
