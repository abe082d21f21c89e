package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/autohub-api/internal/models"
	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
)

type activityStore interface {
	Append(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error)
}

// activityRecorder is the append-only side of the ledger used by the other services.
type activityRecorder interface {
	Append(ctx context.Context, actor models.Actor, action models.ActivityAction, details string) (*models.ActivityLog, error)
}

// ActivityService owns the append-only activity ledger.
type ActivityService struct {
	repo    activityStore
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewActivityService constructs the ledger service.
func NewActivityService(repo activityStore, metrics *MetricsService, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// Append records one ledger entry for the actor.
func (s *ActivityService) Append(ctx context.Context, actor models.Actor, action models.ActivityAction, details string) (*models.ActivityLog, error) {
	entry := &models.ActivityLog{
		UserID:    actor.ID,
		Username:  actor.Username,
		Action:    action,
		Details:   details,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append activity log")
	}
	s.metrics.RecordActivity(string(action))
	return entry, nil
}

// List returns the ledger most-recent-first.
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, *models.Pagination, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity logs")
	}
	return entries, paginationFromOffset(filter.Limit, filter.Offset, 50, total), nil
}

// recordActivity appends to the ledger. A ledger failure is logged and never
// undoes the operation that already committed.
func recordActivity(ctx context.Context, recorder activityRecorder, logger *zap.Logger, actor models.Actor, action models.ActivityAction, details string) {
	if recorder == nil {
		return
	}
	if _, err := recorder.Append(ctx, actor, action, details); err != nil {
		logger.Warn("failed to record activity", zap.String("action", string(action)), zap.String("user_id", actor.ID), zap.Error(err))
	}
}

func paginationFromOffset(limit, offset, def, total int) *models.Pagination {
	if limit <= 0 {
		limit = def
	}
	if offset < 0 {
		offset = 0
	}
	return &models.Pagination{Page: offset/limit + 1, PageSize: limit, TotalCount: total}
}
