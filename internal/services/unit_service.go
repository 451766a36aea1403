package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/grupoterrena/terrena-api/internal/models"
	"github.com/grupoterrena/terrena-api/internal/repository"
	"gorm.io/gorm"
)

// UnitService handles unit catalog management
type UnitService struct {
	repo     repository.UnitRepository
	saleRepo repository.SaleRepository
	auditSvc *AuditService
}

func NewUnitService(repo repository.UnitRepository, saleRepo repository.SaleRepository, auditSvc *AuditService) *UnitService {
	return &UnitService{repo: repo, saleRepo: saleRepo, auditSvc: auditSvc}
}

func (s *UnitService) FindByID(ctx context.Context, id uint) (*models.Unit, error) {
	unit, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return unit, err
}

func (s *UnitService) List(ctx context.Context, query *repository.ListQuery) ([]models.Unit, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *UnitService) Create(ctx context.Context, unit *models.Unit, actor string) error {
	if unit.Number == "" {
		return NewValidationError("number", "se requiere el número de unidad")
	}
	if unit.FullPrice == nil && unit.InstallmentPrice == nil {
		return NewValidationError("full_price", "se requiere al menos un precio")
	}
	if unit.Status == "" {
		unit.Status = models.UnitStatusAvailable
	}

	if err := s.repo.Create(ctx, unit); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actor, "CREATE", "Unit", unit.ID,
		fmt.Sprintf("Unidad %s creada", unit.Number))
	return nil
}

// Update edits catalog fields. Availability status is owned by the sale
// lifecycle and cannot be set here.
func (s *UnitService) Update(ctx context.Context, unit *models.Unit, actor string) error {
	current, err := s.FindByID(ctx, unit.ID)
	if err != nil {
		return err
	}
	unit.Status = current.Status

	if err := s.repo.Update(ctx, unit); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actor, "UPDATE", "Unit", unit.ID,
		fmt.Sprintf("Unidad %s actualizada", unit.Number))
	return nil
}

// ActiveSale returns the non-cancelled sale currently holding the unit, or
// ErrNotFound when the unit is free.
func (s *UnitService) ActiveSale(ctx context.Context, unitID uint) (*models.Sale, error) {
	sale, err := s.saleRepo.FindActiveByUnit(ctx, unitID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return sale, err
}
