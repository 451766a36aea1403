package repository

import (
	"context"

	"github.com/grupoterrena/terrena-api/internal/models"
	"gorm.io/gorm"
)

// UnitRepository defines the interface for unit data access
type UnitRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Unit, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Unit, error)
	Create(ctx context.Context, unit *models.Unit) error
	Update(ctx context.Context, unit *models.Unit) error
	List(ctx context.Context, query *ListQuery) ([]models.Unit, int64, error)
	// UpdateStatusWhere conditionally flips the status of the given units and
	// returns how many rows actually changed. The condition on the current
	// status makes the check and the write a single statement, closing the
	// check-then-act race on availability.
	UpdateStatusWhere(ctx context.Context, ids []uint, from []string, to string) (int64, error)
}

type unitRepository struct {
	db *gorm.DB
}

// NewUnitRepository creates a new unit repository
func NewUnitRepository(db *gorm.DB) UnitRepository {
	return &unitRepository{db: db}
}

func (r *unitRepository) FindByID(ctx context.Context, id uint) (*models.Unit, error) {
	var unit models.Unit
	err := r.db.WithContext(ctx).First(&unit, id).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Unit, error) {
	var units []models.Unit
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&units).Error
	return units, err
}

func (r *unitRepository) Create(ctx context.Context, unit *models.Unit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *unitRepository) Update(ctx context.Context, unit *models.Unit) error {
	return r.db.WithContext(ctx).Save(unit).Error
}

func (r *unitRepository) List(ctx context.Context, query *ListQuery) ([]models.Unit, int64, error) {
	var units []models.Unit
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Unit{})

	if status := query.Filters["status"]; status != "" {
		db = db.Where("units.status = ?", status)
	}
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("units.number ILIKE ? OR COALESCE(units.address, '') ILIKE ?", search, search)
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
		db = db.Order("units.number ASC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&units).Error
	return units, total, err
}

func (r *unitRepository) UpdateStatusWhere(ctx context.Context, ids []uint, from []string, to string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.Unit{}).
		Where("id IN ? AND status IN ?", ids, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}
