package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/autohub-api/internal/models"
	"github.com/noah-isme/autohub-api/internal/repository"
	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
)

type recordReader interface {
	GetByID(ctx context.Context, id string) (*models.InspectionRecord, error)
}

type summaryInvalidator interface {
	Invalidate(ctx context.Context, recordID string) error
}

type editRequestStore interface {
	GetByID(ctx context.Context, id string) (*models.EditRequest, error)
	FindByRecordAndStatus(ctx context.Context, recordID string, status models.EditRequestStatus) (*models.EditRequest, error)
	List(ctx context.Context, filter models.EditRequestFilter) ([]models.EditRequest, int, error)
	CreateRequest(ctx context.Context, req *models.EditRequest) error
	Approve(ctx context.Context, params repository.ReviewParams) error
	Reject(ctx context.Context, params repository.ReviewParams) error
	ApplyEdit(ctx context.Context, params repository.ApplyEditParams) error
}

// EditWorkflowService drives the single-use edit permission state machine:
//
//	LOCKED -> PENDING_PERMISSION -> PERMISSION_GRANTED -> (edit) -> LOCKED
//	                 \-> (reject) -> LOCKED
//
// All transitions on a record are serialised by a per-record mutex and
// persisted with state-guarded updates inside one transaction.
type EditWorkflowService struct {
	records   recordReader
	requests  editRequestStore
	images    imageStore
	summaries summaryInvalidator
	activity  activityRecorder
	metrics   *MetricsService
	locks     *recordLocks
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// EditWorkflowOption configures the service.
type EditWorkflowOption func(*EditWorkflowService)

// WithWorkflowImages enables image replacement on consumed edits.
func WithWorkflowImages(images imageStore) EditWorkflowOption {
	return func(s *EditWorkflowService) {
		s.images = images
	}
}

// WithWorkflowMetrics records transition counters.
func WithWorkflowMetrics(metrics *MetricsService) EditWorkflowOption {
	return func(s *EditWorkflowService) {
		s.metrics = metrics
	}
}

// WithWorkflowSummaries drops cached summaries once an edit changes the record.
func WithWorkflowSummaries(summaries summaryInvalidator) EditWorkflowOption {
	return func(s *EditWorkflowService) {
		s.summaries = summaries
	}
}

// WithWorkflowClock overrides the time source.
func WithWorkflowClock(now func() time.Time) EditWorkflowOption {
	return func(s *EditWorkflowService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewEditWorkflowService constructs the workflow engine.
func NewEditWorkflowService(records recordReader, requests editRequestStore, activity activityRecorder, validate *validator.Validate, logger *zap.Logger, opts ...EditWorkflowOption) *EditWorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	svc := &EditWorkflowService{
		records:   records,
		requests:  requests,
		activity:  activity,
		locks:     newRecordLocks(),
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// RequestEditPermission opens a PENDING request on a LOCKED record authored by
// the requester.
func (s *EditWorkflowService) RequestEditPermission(ctx context.Context, requester models.Actor, recordID string) (req *models.EditRequest, err error) {
	defer func() { s.metrics.RecordTransition("request", err) }()

	unlock := s.locks.Lock(recordID)
	defer unlock()

	record, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if requester.ID == "" || requester.ID != record.InspectorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the authoring inspector may request an edit")
	}
	if record.Status != models.RecordStatusLocked {
		return nil, appErrors.ErrInvalidStateForRequest
	}

	req = &models.EditRequest{
		RecordID:      record.ID,
		InspectorID:   requester.ID,
		InspectorName: requester.Username,
		RequestedAt:   s.now().UTC(),
	}
	if err := s.requests.CreateRequest(ctx, req); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidStateForRequest
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create edit request")
	}

	recordActivity(ctx, s.activity, s.logger, requester, models.ActivityRequestEdit,
		fmt.Sprintf("requested edit permission for chassis %s", record.ChassisNumber))
	return req, nil
}

// ApproveRequest grants the one-time edit.
func (s *EditWorkflowService) ApproveRequest(ctx context.Context, reviewer models.Actor, requestID string) (req *models.EditRequest, err error) {
	defer func() { s.metrics.RecordTransition("approve", err) }()

	req, record, unlock, err := s.lockPending(ctx, reviewer, requestID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now().UTC()
	if err := s.requests.Approve(ctx, repository.ReviewParams{RequestID: req.ID, RecordID: req.RecordID, ReviewerID: reviewer.ID, ReviewedAt: now}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidStateForApproval
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve edit request")
	}
	req.Status = models.EditRequestApproved
	req.ReviewedBy = &reviewer.ID
	req.ReviewedAt = &now

	recordActivity(ctx, s.activity, s.logger, reviewer, models.ActivityApproveEdit,
		fmt.Sprintf("granted inspector %s a one-time edit of chassis %s", req.InspectorName, record.ChassisNumber))
	return req, nil
}

// RejectRequest declines a pending request and re-locks the record. A rejected
// request can never be approved.
func (s *EditWorkflowService) RejectRequest(ctx context.Context, reviewer models.Actor, requestID string) (req *models.EditRequest, err error) {
	defer func() { s.metrics.RecordTransition("reject", err) }()

	req, record, unlock, err := s.lockPending(ctx, reviewer, requestID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now().UTC()
	if err := s.requests.Reject(ctx, repository.ReviewParams{RequestID: req.ID, RecordID: req.RecordID, ReviewerID: reviewer.ID, ReviewedAt: now}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidStateForApproval
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject edit request")
	}
	req.Status = models.EditRequestRejected
	req.ReviewedBy = &reviewer.ID
	req.ReviewedAt = &now

	recordActivity(ctx, s.activity, s.logger, reviewer, models.ActivityRejectEdit,
		fmt.Sprintf("rejected edit request of inspector %s for chassis %s", req.InspectorName, record.ChassisNumber))
	return req, nil
}

// PerformEdit consumes the grant: applies the patch, re-locks the record and
// archives the request as COMPLETED with before/after snapshots.
func (s *EditWorkflowService) PerformEdit(ctx context.Context, editor models.Actor, recordID string, patch models.RecordPatch) (rec *models.InspectionRecord, err error) {
	defer func() { s.metrics.RecordTransition("edit", err) }()

	if err := s.validator.Struct(patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid edit payload")
	}

	unlock := s.locks.Lock(recordID)
	defer unlock()

	record, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.RecordStatusPermissionGranted {
		return nil, appErrors.ErrInvalidStateForEdit
	}
	req, err := s.requests.FindByRecordAndStatus(ctx, recordID, models.EditRequestApproved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNoApprovedRequest
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load edit request")
	}
	if editor.ID == "" || editor.ID != req.InspectorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "edit permission was granted to another inspector")
	}

	oldData, err := json.Marshal(record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to snapshot record")
	}

	updated := *record
	applyPatch(&updated, patch)
	if strings.TrimSpace(updated.ChassisNumber) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "chassis number cannot be empty")
	}
	var stored []string
	if patch.Images != nil && s.images != nil {
		refs, err := s.images.StoreImages(ctx, record.ID, patch.Images)
		if err != nil {
			return nil, err
		}
		stored = newRefs(record.Images, refs)
		updated.Images = refs
	}
	now := s.now().UTC()
	updated.Status = models.RecordStatusLocked
	updated.UpdatedAt = now
	newData, err := json.Marshal(updated)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to snapshot edit")
	}
	diff := diffRecords(record, &updated)

	err = s.requests.ApplyEdit(ctx, repository.ApplyEditParams{
		Record:      &updated,
		RequestID:   req.ID,
		OldData:     oldData,
		NewData:     newData,
		CompletedAt: now,
	})
	if err != nil {
		if s.images != nil {
			s.images.Discard(stored)
		}
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.ErrDuplicateChassis
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.ErrInvalidStateForEdit
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply edit")
	}
	if s.summaries != nil {
		if err := s.summaries.Invalidate(ctx, record.ID); err != nil {
			s.logger.Warn("failed to drop cached summary", zap.String("record_id", record.ID), zap.Error(err))
		}
	}

	details := fmt.Sprintf("edited chassis %s. changes: %s", record.ChassisNumber, diff)
	if diff == "" {
		details = fmt.Sprintf("edited chassis %s. changes: none", record.ChassisNumber)
	}
	recordActivity(ctx, s.activity, s.logger, editor, models.ActivityEditCar, details)
	return &updated, nil
}

// GetRequest returns a request by id.
func (s *EditWorkflowService) GetRequest(ctx context.Context, id string) (*models.EditRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrRequestNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load edit request")
	}
	return req, nil
}

// ListRequests returns requests most recent first; filter by PENDING for the
// review queue or COMPLETED for the edit archive.
func (s *EditWorkflowService) ListRequests(ctx context.Context, filter models.EditRequestFilter) ([]models.EditRequest, *models.Pagination, error) {
	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list edit requests")
	}
	return requests, paginationFromOffset(filter.Limit, filter.Offset, 50, total), nil
}

// lockPending resolves the request's record, takes the record lock and
// re-validates the request under it.
func (s *EditWorkflowService) lockPending(ctx context.Context, reviewer models.Actor, requestID string) (*models.EditRequest, *models.InspectionRecord, func(), error) {
	if !reviewer.Role.IsReviewer() {
		return nil, nil, nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may review edit requests")
	}
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, nil, nil, err
	}
	unlock := s.locks.Lock(req.RecordID)

	req, err = s.GetRequest(ctx, requestID)
	if err != nil {
		unlock()
		return nil, nil, nil, err
	}
	if req.Status != models.EditRequestPending {
		unlock()
		return nil, nil, nil, appErrors.ErrInvalidStateForApproval
	}
	record, err := s.loadRecord(ctx, req.RecordID)
	if err != nil {
		unlock()
		return nil, nil, nil, err
	}
	return req, record, unlock, nil
}

func (s *EditWorkflowService) loadRecord(ctx context.Context, id string) (*models.InspectionRecord, error) {
	return loadRecordFrom(ctx, s.records, id)
}

func loadRecordFrom(ctx context.Context, records recordReader, id string) (*models.InspectionRecord, error) {
	record, err := records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrRecordNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inspection record")
	}
	return record, nil
}

func applyPatch(r *models.InspectionRecord, p models.RecordPatch) {
	if p.Brand != nil {
		r.Brand = strings.TrimSpace(*p.Brand)
	}
	if p.Type != nil {
		r.Type = strings.TrimSpace(*p.Type)
	}
	if p.Model != nil {
		r.Model = strings.TrimSpace(*p.Model)
	}
	if p.Color != nil {
		r.Color = strings.TrimSpace(*p.Color)
	}
	if p.ChassisNumber != nil {
		r.ChassisNumber = strings.TrimSpace(*p.ChassisNumber)
	}
	if p.Mileage != nil {
		r.Mileage = *p.Mileage
	}
	if p.Notes != nil {
		r.Notes = strings.TrimSpace(*p.Notes)
	}
}

// diffRecords lists changed fields in declaration order, excluding images,
// as "field: [old] -> [new]" joined by " | ".
func diffRecords(before, after *models.InspectionRecord) string {
	fields := []struct {
		name     string
		old, new string
	}{
		{"brand", before.Brand, after.Brand},
		{"type", before.Type, after.Type},
		{"model", before.Model, after.Model},
		{"color", before.Color, after.Color},
		{"chassisNumber", before.ChassisNumber, after.ChassisNumber},
		{"mileage", fmt.Sprint(before.Mileage), fmt.Sprint(after.Mileage)},
		{"notes", before.Notes, after.Notes},
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.old != f.new {
			parts = append(parts, fmt.Sprintf("%s: [%s] -> [%s]", f.name, f.old, f.new))
		}
	}
	return strings.Join(parts, " | ")
}

func newRefs(existing, refs []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, ref := range existing {
		seen[ref] = struct{}{}
	}
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref]; !ok {
			out = append(out, ref)
		}
	}
	return out
}
