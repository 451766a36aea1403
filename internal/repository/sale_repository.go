package repository

import (
	"context"
	"strings"
	"time"

	"github.com/grupoterrena/terrena-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleRepository defines the interface for sale data access
type SaleRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Sale, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Sale, error)
	FindByClient(ctx context.Context, clientID uint) ([]models.Sale, error)
	Create(ctx context.Context, sale *models.Sale) error
	Update(ctx context.Context, sale *models.Sale) error
	List(ctx context.Context, query *SaleQuery) ([]models.Sale, int64, error)
	FindActiveByUnit(ctx context.Context, unitID uint) (*models.Sale, error)
	FindExpiredAwaitingPayment(ctx context.Context, asOf time.Time) ([]models.Sale, error)
	CreateSaleUnit(ctx context.Context, su *models.SaleUnit) error
	MoveSaleUnit(ctx context.Context, saleUnitID, newSaleID uint) error
	GetStats(ctx context.Context) (*SaleStats, error)
}

// SaleQuery extends ListQuery with sale-specific filters
type SaleQuery struct {
	*ListQuery
	ClientID uint
	Status   string
	UnitID   uint
}

type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) FindByID(ctx context.Context, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).First(&sale, id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Joins("Client").
		Preload("SaleUnits", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("SaleUnits.Unit").
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_date ASC, id ASC")
		}).
		First(&sale, id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) FindByClient(ctx context.Context, clientID uint) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Preload("SaleUnits.Unit").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepository) Create(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *saleRepository) Update(ctx context.Context, sale *models.Sale) error {
	// Save upserts preloaded associations, which would resurrect installment
	// rows deleted earlier in the same transaction. Persist columns only.
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(sale).Error
}

func (r *saleRepository) List(ctx context.Context, query *SaleQuery) ([]models.Sale, int64, error) {
	var sales []models.Sale
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Sale{})

	if query.Filters != nil {
		if val, ok := query.Filters["status_in"]; ok && val != "" {
			statuses := strings.Split(val, ",")
			for i, s := range statuses {
				statuses[i] = strings.TrimSpace(s)
			}
			db = db.Where("sales.status IN ?", statuses)
		}
	}
	if (query.Filters == nil || query.Filters["status_in"] == "") && query.Status != "" {
		db = db.Where("sales.status = ?", query.Status)
	}

	if query.ClientID > 0 {
		db = db.Where("sales.client_id = ?", query.ClientID)
	}
	if query.UnitID > 0 {
		db = db.Joins("JOIN sale_units ON sale_units.sale_id = sales.id").
			Where("sale_units.unit_id = ?", query.UnitID)
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN clients ON clients.id = sales.client_id").
			Where("clients.full_name ILIKE ? OR clients.identity ILIKE ? OR sales.guid ILIKE ?",
				search, search, search)
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
		db = db.Order("sales.created_at DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	// Payments are needed for the cash-received figure in list responses.
	err := db.
		Preload("Client").
		Preload("SaleUnits.Unit").
		Preload("Payments").
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepository) FindActiveByUnit(ctx context.Context, unitID uint) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Joins("JOIN sale_units ON sale_units.sale_id = sales.id").
		Where("sale_units.unit_id = ? AND sales.status <> ?", unitID, models.SaleStatusCancelled).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) FindExpiredAwaitingPayment(ctx context.Context, asOf time.Time) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.db.WithContext(ctx).
		Where("status = ? AND deadline_date IS NOT NULL AND deadline_date < ?",
			models.SaleStatusAwaitingPayment, asOf).
		Preload("SaleUnits").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepository) CreateSaleUnit(ctx context.Context, su *models.SaleUnit) error {
	return r.db.WithContext(ctx).Create(su).Error
}

func (r *saleRepository) MoveSaleUnit(ctx context.Context, saleUnitID, newSaleID uint) error {
	return r.db.WithContext(ctx).Model(&models.SaleUnit{}).
		Where("id = ?", saleUnitID).
		Update("sale_id", newSaleID).Error
}

// SaleStats holds the count of sales by status
type SaleStats struct {
	Total               int64 `json:"total"`
	AwaitingPayment     int64 `json:"awaiting_payment"`
	InstallmentsOngoing int64 `json:"installments_ongoing"`
	Completed           int64 `json:"completed"`
	Cancelled           int64 `json:"cancelled"`
}

func (r *saleRepository) GetStats(ctx context.Context) (*SaleStats, error) {
	stats := &SaleStats{}

	rows, err := r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Select("status, count(*) as count").
		Group("status").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var total int64
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		total += count
		switch status {
		case models.SaleStatusAwaitingPayment:
			stats.AwaitingPayment = count
		case models.SaleStatusInstallmentsOngoing:
			stats.InstallmentsOngoing = count
		case models.SaleStatusCompleted:
			stats.Completed = count
		case models.SaleStatusCancelled:
			stats.Cancelled = count
		}
	}
	stats.Total = total

	return stats, nil
}
