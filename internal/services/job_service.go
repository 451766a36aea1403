package services

import (
	"context"
	"time"

	"github.com/grupoterrena/terrena-api/internal/jobs"
)

type JobService struct {
	worker  *jobs.Worker
	saleSvc *SaleService
}

func NewJobService(worker *jobs.Worker, saleSvc *SaleService) *JobService {
	return &JobService{
		worker:  worker,
		saleSvc: saleSvc,
	}
}

func (s *JobService) GetStatus() map[string]interface{} {
	stats := s.worker.GetStats()
	return map[string]interface{}{
		"active_jobs":    stats.ActiveJobs,
		"completed_jobs": stats.CompletedJobs,
		"failed_jobs":    stats.FailedJobs,
		"queue_length":   stats.QueueLength,
		"max_concurrent": stats.MaxConcurrent,
	}
}

// TriggerDeadlineRelease queues the expired-sale release pass on the worker
// pool, serialized with other maintenance jobs.
func (s *JobService) TriggerDeadlineRelease() {
	s.worker.Enqueue(func(ctx context.Context) error {
		_, err := s.saleSvc.ReleaseExpiredSales(ctx, time.Now())
		return err
	})
}

// TriggerLateSync queues the late-status sync pass on the worker pool.
func (s *JobService) TriggerLateSync() {
	s.worker.Enqueue(func(ctx context.Context) error {
		_, err := s.saleSvc.SyncLateInstallments(ctx, time.Now())
		return err
	})
}
