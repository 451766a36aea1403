package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/grupoterrena/terrena-api/internal/models"
	"github.com/grupoterrena/terrena-api/internal/repository"
	"gorm.io/gorm"
)

// ClientService handles client management
type ClientService struct {
	repo     repository.ClientRepository
	saleRepo repository.SaleRepository
	auditSvc *AuditService
}

func NewClientService(repo repository.ClientRepository, saleRepo repository.SaleRepository, auditSvc *AuditService) *ClientService {
	return &ClientService{repo: repo, saleRepo: saleRepo, auditSvc: auditSvc}
}

func (s *ClientService) FindByID(ctx context.Context, id uint) (*models.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return client, err
}

func (s *ClientService) List(ctx context.Context, query *repository.ListQuery) ([]models.Client, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *ClientService) Create(ctx context.Context, client *models.Client, actor string) error {
	if client.FullName == "" {
		return NewValidationError("full_name", "se requiere el nombre")
	}
	if client.Identity != "" {
		existing, err := s.repo.FindByIdentity(ctx, client.Identity)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil {
			return ErrDuplicate
		}
	}

	if err := s.repo.Create(ctx, client); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actor, "CREATE", "Client", client.ID,
		fmt.Sprintf("Cliente %s creado", client.FullName))
	return nil
}

func (s *ClientService) Update(ctx context.Context, client *models.Client, actor string) error {
	if _, err := s.FindByID(ctx, client.ID); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, client); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actor, "UPDATE", "Client", client.ID,
		fmt.Sprintf("Cliente %s actualizado", client.FullName))
	return nil
}

// Sales returns all sales of a client, units preloaded
func (s *ClientService) Sales(ctx context.Context, clientID uint) ([]models.Sale, error) {
	if _, err := s.FindByID(ctx, clientID); err != nil {
		return nil, err
	}
	return s.saleRepo.FindByClient(ctx, clientID)
}
