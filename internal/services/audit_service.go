package services

import (
	"context"

	"github.com/grupoterrena/terrena-api/internal/jobs"
	"github.com/grupoterrena/terrena-api/internal/models"
	"gorm.io/gorm"
)

// AuditService records who did what to which entity. Writes ride the worker
// pool so the request path never waits on the audit table; a failed write is
// logged by the worker and dropped.
type AuditService struct {
	db     *gorm.DB
	worker *jobs.Worker
}

func NewAuditService(db *gorm.DB, worker *jobs.Worker) *AuditService {
	return &AuditService{db: db, worker: worker}
}

// Log records an audit entry in the background
func (s *AuditService) Log(_ context.Context, actor, action, entity string, entityID uint, details string) {
	entry := &models.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Details:  details,
	}
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.db.WithContext(ctx).Create(entry).Error
	})
}

// List retrieves audit logs, newest first
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Offset(offset).Find(&logs)
	return logs, total, result.Error
}
