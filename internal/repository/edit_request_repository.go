package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/autohub-api/internal/models"
)

const editRequestColumns = `id, record_id, inspector_id, inspector_name, status, allowed_edits_count, used_edits_count,
       reviewed_by, old_data, new_data, requested_at, reviewed_at, completed_at`

// EditRequestRepository persists edit requests and performs the guarded
// record/request transitions in a single transaction. A guard that matches
// no row surfaces as sql.ErrNoRows and the transaction is rolled back.
type EditRequestRepository struct {
	db *sqlx.DB
}

// NewEditRequestRepository constructs the repository.
func NewEditRequestRepository(db *sqlx.DB) *EditRequestRepository {
	return &EditRequestRepository{db: db}
}

// GetByID fetches a request by identifier.
func (r *EditRequestRepository) GetByID(ctx context.Context, id string) (*models.EditRequest, error) {
	query := r.db.Rebind(`SELECT ` + editRequestColumns + ` FROM edit_requests WHERE id = ?`)
	var req models.EditRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get edit request: %w", err)
	}
	return &req, nil
}

// FindByRecordAndStatus returns the latest request for the record in the given status.
func (r *EditRequestRepository) FindByRecordAndStatus(ctx context.Context, recordID string, status models.EditRequestStatus) (*models.EditRequest, error) {
	query := r.db.Rebind(`SELECT ` + editRequestColumns + ` FROM edit_requests
	WHERE record_id = ? AND status = ? ORDER BY requested_at DESC LIMIT 1`)
	var req models.EditRequest
	if err := r.db.GetContext(ctx, &req, query, recordID, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find edit request by record: %w", err)
	}
	return &req, nil
}

// List returns requests matching the filter (latest first) with the total count.
func (r *EditRequestRepository) List(ctx context.Context, filter models.EditRequestFilter) ([]models.EditRequest, int, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			placeholders[i] = "?"
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.RecordID != "" {
		conditions = append(conditions, "record_id = ?")
		args = append(args, filter.RecordID)
	}
	if filter.InspectorID != "" {
		conditions = append(conditions, "inspector_id = ?")
		args = append(args, filter.InspectorID)
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	limit, offset := clampPage(filter.Limit, filter.Offset, 50, 200)

	listQuery := r.db.Rebind(fmt.Sprintf("SELECT %s FROM edit_requests%s ORDER BY requested_at DESC LIMIT %d OFFSET %d", editRequestColumns, where, limit, offset))
	var requests []models.EditRequest
	if err := r.db.SelectContext(ctx, &requests, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list edit requests: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) FROM edit_requests"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count edit requests: %w", err)
	}
	return requests, total, nil
}

// CountByStatus counts requests in the given status.
func (r *EditRequestRepository) CountByStatus(ctx context.Context, status models.EditRequestStatus) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM edit_requests WHERE status = ?`), status); err != nil {
		return 0, fmt.Errorf("count edit requests: %w", err)
	}
	return total, nil
}

// CreateRequest moves a LOCKED record to PENDING_PERMISSION and inserts the
// pending request. An already active request for the record yields sql.ErrNoRows.
func (r *EditRequestRepository) CreateRequest(ctx context.Context, req *models.EditRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	req.Status = models.EditRequestPending
	req.AllowedEditsCount = 1
	req.UsedEditsCount = 0

	return r.withTx(ctx, "create edit request", func(tx *sqlx.Tx) error {
		if err := guardedExec(ctx, tx, `UPDATE inspection_records SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			models.RecordStatusPendingPermission, req.RequestedAt, req.RecordID, models.RecordStatusLocked); err != nil {
			return err
		}
		const insert = `INSERT INTO edit_requests
		(id, record_id, inspector_id, inspector_name, status, allowed_edits_count, used_edits_count, requested_at)
		VALUES (:id, :record_id, :inspector_id, :inspector_name, :status, :allowed_edits_count, :used_edits_count, :requested_at)`
		if _, err := tx.NamedExecContext(ctx, insert, req); err != nil {
			if isUniqueViolation(err) {
				return sql.ErrNoRows
			}
			return fmt.Errorf("insert edit request: %w", err)
		}
		return nil
	})
}

// ReviewParams carries the outcome of an approve or reject decision.
type ReviewParams struct {
	RequestID  string
	RecordID   string
	ReviewerID string
	ReviewedAt time.Time
}

// Approve marks a PENDING request APPROVED and grants the record permission.
func (r *EditRequestRepository) Approve(ctx context.Context, params ReviewParams) error {
	return r.review(ctx, "approve edit request", params, models.EditRequestApproved, models.RecordStatusPermissionGranted)
}

// Reject marks a PENDING request REJECTED and re-locks the record.
func (r *EditRequestRepository) Reject(ctx context.Context, params ReviewParams) error {
	return r.review(ctx, "reject edit request", params, models.EditRequestRejected, models.RecordStatusLocked)
}

func (r *EditRequestRepository) review(ctx context.Context, op string, params ReviewParams, to models.EditRequestStatus, recordTo models.RecordStatus) error {
	return r.withTx(ctx, op, func(tx *sqlx.Tx) error {
		if err := guardedExec(ctx, tx, `UPDATE edit_requests SET status = ?, reviewed_by = ?, reviewed_at = ? WHERE id = ? AND status = ?`,
			to, params.ReviewerID, params.ReviewedAt, params.RequestID, models.EditRequestPending); err != nil {
			return err
		}
		return guardedExec(ctx, tx, `UPDATE inspection_records SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			recordTo, params.ReviewedAt, params.RecordID, models.RecordStatusPendingPermission)
	})
}

// ApplyEditParams carries a consumed edit.
type ApplyEditParams struct {
	Record      *models.InspectionRecord
	RequestID   string
	OldData     models.JSONSnapshot
	NewData     models.JSONSnapshot
	CompletedAt time.Time
}

// ApplyEdit writes the edited record, re-locks it and completes the approved
// request. The record must be PERMISSION_GRANTED and the request APPROVED with
// an unused grant. A chassis collision yields ErrDuplicate.
func (r *EditRequestRepository) ApplyEdit(ctx context.Context, params ApplyEditParams) error {
	rec := params.Record
	rec.ChassisKey = models.ChassisKey(rec.ChassisNumber)
	rec.UpdatedAt = params.CompletedAt
	if rec.Images == nil {
		rec.Images = models.StringList{}
	}

	return r.withTx(ctx, "apply edit", func(tx *sqlx.Tx) error {
		err := guardedExec(ctx, tx, `UPDATE inspection_records
		SET brand = ?, type = ?, model = ?, color = ?, chassis_number = ?, chassis_key = ?, mileage = ?, notes = ?, images = ?, status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
			rec.Brand, rec.Type, rec.Model, rec.Color, rec.ChassisNumber, rec.ChassisKey, rec.Mileage, rec.Notes, rec.Images,
			models.RecordStatusLocked, rec.UpdatedAt, rec.ID, models.RecordStatusPermissionGranted)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		return guardedExec(ctx, tx, `UPDATE edit_requests
		SET status = ?, used_edits_count = used_edits_count + 1, old_data = ?, new_data = ?, completed_at = ?
		WHERE id = ? AND status = ? AND used_edits_count < allowed_edits_count`,
			models.EditRequestCompleted, params.OldData, params.NewData, params.CompletedAt, params.RequestID, models.EditRequestApproved)
	})
}

func (r *EditRequestRepository) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", op, err)
	}
	return nil
}

// guardedExec runs a state-guarded statement and reports sql.ErrNoRows when
// the guard matched nothing.
func guardedExec(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) error {
	result, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("guarded update: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("guarded update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
