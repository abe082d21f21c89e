package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RecordStatus is the edit gate of an inspection record. Only these three
// states are reachable.
type RecordStatus string

const (
	RecordStatusLocked            RecordStatus = "LOCKED"
	RecordStatusPendingPermission RecordStatus = "PENDING_PERMISSION"
	RecordStatusPermissionGranted RecordStatus = "PERMISSION_GRANTED"
)

// InspectionRecord is a single vehicle inspection report.
type InspectionRecord struct {
	ID            string       `db:"id" json:"id"`
	Brand         string       `db:"brand" json:"brand"`
	Type          string       `db:"type" json:"type"`
	Model         string       `db:"model" json:"model"`
	Color         string       `db:"color" json:"color"`
	ChassisNumber string       `db:"chassis_number" json:"chassisNumber"`
	ChassisKey    string       `db:"chassis_key" json:"-"`
	Mileage       int64        `db:"mileage" json:"mileage"`
	Notes         string       `db:"notes" json:"notes"`
	Images        StringList   `db:"images" json:"images"`
	InspectorID   string       `db:"inspector_id" json:"inspectorId"`
	InspectorName string       `db:"inspector_name" json:"inspectorName"`
	Status        RecordStatus `db:"status" json:"status"`
	InspectedAt   time.Time    `db:"inspected_at" json:"inspectionDate"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updatedAt"`
}

// ChassisKey normalises a chassis number for uniqueness and exact lookup.
func ChassisKey(chassis string) string {
	return strings.ToLower(strings.TrimSpace(chassis))
}

// RecordFilter constrains record listing queries.
type RecordFilter struct {
	Query         string
	Brand         string
	ChassisNumber string
	InspectorID   string
	Status        []RecordStatus
	Limit         int
	Offset        int
}

// SearchFilter is the caller-facing search input.
type SearchFilter struct {
	Query         string `form:"q"`
	Brand         string `form:"brand"`
	ChassisNumber string `form:"chassis_number"`
	Page          int    `form:"page"`
	PageSize      int    `form:"page_size"`
}

// RecordAction is an affordance offered to staff on a record.
type RecordAction string

const (
	ActionRequestEdit RecordAction = "REQUEST_EDIT"
	ActionPerformEdit RecordAction = "PERFORM_EDIT"
	ActionSummarize   RecordAction = "SUMMARIZE"
)

// PublicRecordView is the redacted record shape. It carries no status,
// inspector id or workflow affordances.
type PublicRecordView struct {
	ID            string    `json:"id"`
	Brand         string    `json:"brand"`
	Type          string    `json:"type"`
	Model         string    `json:"model"`
	Color         string    `json:"color"`
	ChassisNumber string    `json:"chassisNumber"`
	Mileage       int64     `json:"mileage"`
	Notes         string    `json:"notes"`
	Images        []string  `json:"images"`
	InspectorName string    `json:"inspectorName"`
	InspectedAt   time.Time `json:"inspectionDate"`
}

// StaffRecordView is the full record plus the actions the caller may take.
type StaffRecordView struct {
	InspectionRecord
	Actions []RecordAction `json:"actions"`
}

// StringList persists a list of strings as a JSON array column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan string list: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}
