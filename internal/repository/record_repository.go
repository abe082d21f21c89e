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

const recordColumns = `id, brand, type, model, color, chassis_number, chassis_key, mileage, notes, images,
       inspector_id, inspector_name, status, inspected_at, updated_at`

// RecordRepository persists inspection records.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository constructs the repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Create inserts a new record. A chassis number already in use yields ErrDuplicate.
func (r *RecordRepository) Create(ctx context.Context, record *models.InspectionRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = models.RecordStatusLocked
	}
	now := time.Now().UTC()
	if record.InspectedAt.IsZero() {
		record.InspectedAt = now
	}
	record.UpdatedAt = now
	record.ChassisKey = models.ChassisKey(record.ChassisNumber)
	if record.Images == nil {
		record.Images = models.StringList{}
	}

	const query = `INSERT INTO inspection_records
	(id, brand, type, model, color, chassis_number, chassis_key, mileage, notes, images, inspector_id, inspector_name, status, inspected_at, updated_at)
	VALUES (:id, :brand, :type, :model, :color, :chassis_number, :chassis_key, :mileage, :notes, :images, :inspector_id, :inspector_name, :status, :inspected_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create inspection record: %w", err)
	}
	return nil
}

// GetByID fetches a record by identifier.
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*models.InspectionRecord, error) {
	return r.getOne(ctx, `id = ?`, id)
}

// FindByChassis fetches the record whose normalised chassis number matches exactly.
func (r *RecordRepository) FindByChassis(ctx context.Context, chassis string) (*models.InspectionRecord, error) {
	return r.getOne(ctx, `chassis_key = ?`, models.ChassisKey(chassis))
}

// List returns records matching the filter, newest first.
func (r *RecordRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.InspectionRecord, int, error) {
	conditions := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)

	if q := strings.TrimSpace(filter.Query); q != "" {
		conditions = append(conditions, "(LOWER(brand) LIKE ?"+likeEscape+" OR LOWER(type) LIKE ?"+likeEscape+")")
		args = append(args, likePattern(q), likePattern(q))
	}
	if filter.Brand != "" {
		conditions = append(conditions, "brand = ?")
		args = append(args, filter.Brand)
	}
	if filter.ChassisNumber != "" {
		conditions = append(conditions, "chassis_key LIKE ?"+likeEscape)
		args = append(args, likePattern(filter.ChassisNumber))
	}
	if filter.InspectorID != "" {
		conditions = append(conditions, "inspector_id = ?")
		args = append(args, filter.InspectorID)
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			placeholders[i] = "?"
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	limit, offset := clampPage(filter.Limit, filter.Offset, 50, 500)

	listQuery := r.db.Rebind(fmt.Sprintf("SELECT %s FROM inspection_records%s ORDER BY inspected_at DESC, id LIMIT %d OFFSET %d", recordColumns, where, limit, offset))
	var records []models.InspectionRecord
	if err := r.db.SelectContext(ctx, &records, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list inspection records: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) FROM inspection_records"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count inspection records: %w", err)
	}
	return records, total, nil
}

// Count returns the number of stored records.
func (r *RecordRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM inspection_records`); err != nil {
		return 0, fmt.Errorf("count inspection records: %w", err)
	}
	return total, nil
}

func (r *RecordRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.InspectionRecord, error) {
	query := r.db.Rebind(`SELECT ` + recordColumns + ` FROM inspection_records WHERE ` + where + ` LIMIT 1`)
	var record models.InspectionRecord
	if err := r.db.GetContext(ctx, &record, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get inspection record: %w", err)
	}
	return &record, nil
}
