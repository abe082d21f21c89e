package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/autohub-api/internal/models"
	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateActive(ctx context.Context, id string, active bool, updatedAt time.Time) error
	UpdateRole(ctx context.Context, id string, role models.UserRole, updatedAt time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// UserService handles the administrative user mutations. Each mutation is a
// distinct operation with exactly one ledger entry.
type UserService struct {
	repo      userRepository
	activity  activityRecorder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, activity activityRecorder, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, activity: activity, validator: validate, logger: logger, now: time.Now}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return users, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// SetActive activates or disables an account.
func (s *UserService) SetActive(ctx context.Context, actor models.Actor, id string, active bool) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.repo.UpdateActive(ctx, id, active, now); err != nil {
		return nil, s.mutationError(err, "failed to update user status")
	}
	before := user.Active
	user.Active = active
	user.UpdatedAt = now

	recordActivity(ctx, s.activity, s.logger, actor, models.ActivityUserStatus,
		fmt.Sprintf("changed status of %s from %s to %s", user.Username, statusLabel(before), statusLabel(active)))
	return user, nil
}

// SetRole changes the role of an account.
func (s *UserService) SetRole(ctx context.Context, actor models.Actor, id string, role models.UserRole) (*models.User, error) {
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be one of ADMIN, MODERATOR, INSPECTOR, USER")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.repo.UpdateRole(ctx, id, role, now); err != nil {
		return nil, s.mutationError(err, "failed to update user role")
	}
	before := user.Role
	user.Role = role
	user.UpdatedAt = now

	recordActivity(ctx, s.activity, s.logger, actor, models.ActivityUserRole,
		fmt.Sprintf("changed role of %s from %s to %s", user.Username, before, role))
	return user, nil
}

// SetPassword replaces the password of an account.
func (s *UserService) SetPassword(ctx context.Context, actor models.Actor, id, password string) error {
	password = strings.TrimSpace(password)
	if err := s.validator.Var(password, "required,min=3,max=72"); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid password")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, hash, s.now().UTC()); err != nil {
		return s.mutationError(err, "failed to update password")
	}

	recordActivity(ctx, s.activity, s.logger, actor, models.ActivityUserPassword,
		fmt.Sprintf("reset password of %s", user.Username))
	return nil
}

// DeleteUser permanently removes an account. Ledger entries written by the
// account are kept.
func (s *UserService) DeleteUser(ctx context.Context, actor models.Actor, id string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mutationError(err, "failed to delete user")
	}

	recordActivity(ctx, s.activity, s.logger, actor, models.ActivityDeleteUser,
		fmt.Sprintf("deleted account %s (%s)", user.Username, user.Role))
	return nil
}

func (s *UserService) mutationError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrUserNotFound
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func statusLabel(active bool) string {
	if active {
		return "active"
	}
	return "disabled"
}
