package services

import (
	"github.com/grupoterrena/terrena-api/internal/jobs"
	"github.com/grupoterrena/terrena-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Sale   *SaleService
	Unit   *UnitService
	Client *ClientService
	Report *ReportService
	Export *ExportService
	Audit  *AuditService
	Job    *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, db *gorm.DB) *Services {
	auditSvc := NewAuditService(db, worker)
	saleSvc := NewSaleService(repos, auditSvc)

	return &Services{
		Sale:   saleSvc,
		Unit:   NewUnitService(repos.Unit, repos.Sale, auditSvc),
		Client: NewClientService(repos.Client, repos.Sale, auditSvc),
		Report: NewReportService(saleSvc),
		Export: NewExportService(saleSvc),
		Audit:  auditSvc,
		Job:    NewJobService(worker, saleSvc),
	}
}
