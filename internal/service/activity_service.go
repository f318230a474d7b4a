package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/cognify-api/internal/models"
	"github.com/noah-isme/cognify-api/pkg/jobs"
)

type activityStore interface {
	Create(ctx context.Context, log *models.ActivityLog) error
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error)
	Recent(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

// ActivityRecorder is the write side of the audit trail, implemented by
// ActivityService and faked in tests.
type ActivityRecorder interface {
	Record(log models.ActivityLog)
}

// ActivityService writes audit records through a background queue so a
// slow or failing audit insert never blocks the request that caused it.
type ActivityService struct {
	repo   activityStore
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewActivityService constructs the service and its write queue. Call
// Start before use and Stop during shutdown.
func NewActivityService(repo activityStore, logger *zap.Logger, cfg jobs.QueueConfig) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ActivityService{repo: repo, logger: logger}
	cfg.Logger = logger
	svc.queue = jobs.NewQueue("activity-log", svc.handleJob, cfg)
	return svc
}

// Start launches the queue workers.
func (s *ActivityService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *ActivityService) Stop() {
	s.queue.Stop()
}

// Record enqueues an audit entry. Failures are logged and dropped.
func (s *ActivityService) Record(log models.ActivityLog) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "activity.write",
		Payload: log,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue activity log", zap.String("action", log.Action), zap.Error(err))
	}
}

func (s *ActivityService) handleJob(ctx context.Context, job jobs.Job) error {
	log, ok := job.Payload.(models.ActivityLog)
	if !ok {
		s.logger.Warn("dropping activity job with unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.repo.Create(ctx, &log)
}

// List returns audit records for the admin viewer.
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error) {
	return s.repo.List(ctx, filter)
}

// Recent returns the newest audit records for dashboards.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	return s.repo.Recent(ctx, limit)
}
