package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/autohub-api/internal/models"
	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
)

type recordCounter interface {
	Count(ctx context.Context) (int, error)
}

type requestCounter interface {
	CountByStatus(ctx context.Context, status models.EditRequestStatus) (int, error)
}

type userCounter interface {
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, role models.UserRole, active *bool) (int, error)
}

// DashboardService aggregates staff dashboard counters.
type DashboardService struct {
	records  recordCounter
	requests requestCounter
	users    userCounter
	logger   *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(records recordCounter, requests requestCounter, users userCounter, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{records: records, requests: requests, users: users, logger: logger}
}

// Stats returns the current counters.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	var err error
	if stats.TotalRecords, err = s.records.Count(ctx); err != nil {
		return nil, s.wrap(err)
	}
	if stats.PendingRequests, err = s.requests.CountByStatus(ctx, models.EditRequestPending); err != nil {
		return nil, s.wrap(err)
	}
	if stats.ApprovedRequests, err = s.requests.CountByStatus(ctx, models.EditRequestApproved); err != nil {
		return nil, s.wrap(err)
	}
	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, s.wrap(err)
	}
	inactive := false
	if stats.InactiveInspectors, err = s.users.CountByRole(ctx, models.RoleInspector, &inactive); err != nil {
		return nil, s.wrap(err)
	}
	return &stats, nil
}

func (s *DashboardService) wrap(err error) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute dashboard stats")
}
