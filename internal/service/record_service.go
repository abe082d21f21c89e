package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/autohub-api/internal/models"
	"github.com/noah-isme/autohub-api/internal/repository"
	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
)

const (
	defaultSearchPageSize = 20
	maxSearchPageSize     = 100
)

type recordStore interface {
	Create(ctx context.Context, record *models.InspectionRecord) error
	GetByID(ctx context.Context, id string) (*models.InspectionRecord, error)
	FindByChassis(ctx context.Context, chassis string) (*models.InspectionRecord, error)
	List(ctx context.Context, filter models.RecordFilter) ([]models.InspectionRecord, int, error)
}

// imageStore is the part of AttachmentService used for record images.
type imageStore interface {
	StoreImages(ctx context.Context, recordID string, images []string) ([]string, error)
	Discard(refs []string)
	Links(recordID string, refs []string) []string
}

// CreateRecordInput is the payload for a new inspection record.
type CreateRecordInput struct {
	Brand         string   `json:"brand" validate:"required,max=80"`
	Type          string   `json:"type" validate:"required,max=80"`
	Model         string   `json:"model" validate:"required,max=16"`
	Color         string   `json:"color" validate:"required,max=40"`
	ChassisNumber string   `json:"chassisNumber" validate:"required,max=64"`
	Mileage       int64    `json:"mileage" validate:"min=0"`
	Notes         string   `json:"notes" validate:"max=4000"`
	Images        []string `json:"images"`
}

// RecordService creates and reads inspection records. Content changes only
// through EditWorkflowService.
type RecordService struct {
	repo      recordStore
	images    imageStore
	activity  activityRecorder
	policy    VisibilityPolicy
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewRecordService constructs the service. images may be nil.
func NewRecordService(repo recordStore, images imageStore, activity activityRecorder, validate *validator.Validate, logger *zap.Logger) *RecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RecordService{repo: repo, images: images, activity: activity, validator: validate, logger: logger, now: time.Now}
}

// CreateRecord stores a LOCKED record stamped with the author and time.
func (s *RecordService) CreateRecord(ctx context.Context, author models.Actor, input CreateRecordInput) (*models.InspectionRecord, error) {
	if author.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	input.Brand = strings.TrimSpace(input.Brand)
	input.Type = strings.TrimSpace(input.Type)
	input.Model = strings.TrimSpace(input.Model)
	input.Color = strings.TrimSpace(input.Color)
	input.ChassisNumber = strings.TrimSpace(input.ChassisNumber)
	input.Notes = strings.TrimSpace(input.Notes)
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid inspection record")
	}

	if _, err := s.repo.FindByChassis(ctx, input.ChassisNumber); err == nil {
		return nil, appErrors.ErrDuplicateChassis
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check chassis number")
	}

	record := &models.InspectionRecord{
		ID:            uuid.NewString(),
		Brand:         input.Brand,
		Type:          input.Type,
		Model:         input.Model,
		Color:         input.Color,
		ChassisNumber: input.ChassisNumber,
		Mileage:       input.Mileage,
		Notes:         input.Notes,
		Images:        models.StringList{},
		InspectorID:   author.ID,
		InspectorName: author.Username,
		Status:        models.RecordStatusLocked,
		InspectedAt:   s.now().UTC(),
	}
	if len(input.Images) > 0 && s.images != nil {
		refs, err := s.images.StoreImages(ctx, record.ID, input.Images)
		if err != nil {
			return nil, err
		}
		record.Images = refs
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if s.images != nil {
			s.images.Discard(record.Images)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.ErrDuplicateChassis
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create inspection record")
	}

	recordActivity(ctx, s.activity, s.logger, author, models.ActivityAddCar,
		fmt.Sprintf("added inspection record (chassis: %s)", record.ChassisNumber))
	return record, nil
}

// GetRecord returns a record by id.
func (s *RecordService) GetRecord(ctx context.Context, id string) (*models.InspectionRecord, error) {
	return loadRecordFrom(ctx, s.repo, id)
}

// GetView returns the record shaped for the caller.
func (s *RecordService) GetView(ctx context.Context, caller models.Actor, id string) (interface{}, error) {
	record, err := s.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	s.linkImages(record)
	if s.policy.Redacted(caller) {
		return s.policy.PublicView(*record), nil
	}
	return s.policy.StaffView(*record, caller), nil
}

// ListRecords returns records matching the filter.
func (s *RecordService) ListRecords(ctx context.Context, filter models.RecordFilter) ([]models.InspectionRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list inspection records")
	}
	return records, paginationFromOffset(filter.Limit, filter.Offset, 50, total), nil
}

// Search runs the visibility policy for the caller. Non-staff callers only get
// an exact chassis match; staff get the combined brand/type/chassis filters,
// paged in storage.
func (s *RecordService) Search(ctx context.Context, caller models.Actor, filter models.SearchFilter) (SearchResult, error) {
	var (
		candidates []models.InspectionRecord
		pagination *models.Pagination
	)
	if s.policy.Redacted(caller) {
		if models.ChassisKey(filter.ChassisNumber) == "" {
			return s.policy.Present(nil, caller), nil
		}
		record, err := s.repo.FindByChassis(ctx, filter.ChassisNumber)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return SearchResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search inspection records")
		}
		if record != nil {
			candidates = append(candidates, *record)
		}
	} else {
		limit, offset := searchWindow(filter)
		records, total, err := s.repo.List(ctx, models.RecordFilter{
			Query:         filter.Query,
			Brand:         strings.TrimSpace(filter.Brand),
			ChassisNumber: models.ChassisKey(filter.ChassisNumber),
			Limit:         limit,
			Offset:        offset,
		})
		if err != nil {
			return SearchResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search inspection records")
		}
		candidates = records
		pagination = paginationFromOffset(limit, offset, defaultSearchPageSize, total)
	}

	matched := s.policy.Search(candidates, caller, filter)
	for i := range matched {
		s.linkImages(&matched[i])
	}
	result := s.policy.Present(matched, caller)
	result.Pagination = pagination
	return result, nil
}

func searchWindow(filter models.SearchFilter) (int, int) {
	size := filter.PageSize
	if size <= 0 {
		size = defaultSearchPageSize
	}
	if size > maxSearchPageSize {
		size = maxSearchPageSize
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	return size, (page - 1) * size
}

func (s *RecordService) linkImages(record *models.InspectionRecord) {
	if s.images == nil || len(record.Images) == 0 {
		return
	}
	record.Images = s.images.Links(record.ID, record.Images)
}
