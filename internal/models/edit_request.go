package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EditRequestStatus captures workflow states for edit requests.
type EditRequestStatus string

const (
	EditRequestPending   EditRequestStatus = "PENDING"
	EditRequestApproved  EditRequestStatus = "APPROVED"
	EditRequestRejected  EditRequestStatus = "REJECTED"
	EditRequestCompleted EditRequestStatus = "COMPLETED"
)

// Active reports whether the request still holds the record's edit gate.
func (s EditRequestStatus) Active() bool {
	return s == EditRequestPending || s == EditRequestApproved
}

// EditRequest ties one inspector to one record for a single edit.
type EditRequest struct {
	ID                string            `db:"id" json:"id"`
	RecordID          string            `db:"record_id" json:"carId"`
	InspectorID       string            `db:"inspector_id" json:"inspectorId"`
	InspectorName     string            `db:"inspector_name" json:"inspectorName"`
	Status            EditRequestStatus `db:"status" json:"status"`
	AllowedEditsCount int               `db:"allowed_edits_count" json:"allowedEditsCount"`
	UsedEditsCount    int               `db:"used_edits_count" json:"usedEditsCount"`
	ReviewedBy        *string           `db:"reviewed_by" json:"reviewedBy,omitempty"`
	OldData           JSONSnapshot      `db:"old_data" json:"oldData,omitempty"`
	NewData           JSONSnapshot      `db:"new_data" json:"newData,omitempty"`
	RequestedAt       time.Time         `db:"requested_at" json:"requestedAt"`
	ReviewedAt        *time.Time        `db:"reviewed_at" json:"reviewedAt,omitempty"`
	CompletedAt       *time.Time        `db:"completed_at" json:"completedAt,omitempty"`
}

// EditRequestFilter constrains listing queries.
type EditRequestFilter struct {
	Status      []EditRequestStatus
	RecordID    string
	InspectorID string
	Limit       int
	Offset      int
}

// RecordPatch carries the submitted field values for a consumed edit. Nil
// fields are left unchanged.
type RecordPatch struct {
	Brand         *string  `json:"brand,omitempty" validate:"omitempty,min=1,max=80"`
	Type          *string  `json:"type,omitempty" validate:"omitempty,min=1,max=80"`
	Model         *string  `json:"model,omitempty" validate:"omitempty,min=1,max=16"`
	Color         *string  `json:"color,omitempty" validate:"omitempty,min=1,max=40"`
	ChassisNumber *string  `json:"chassisNumber,omitempty" validate:"omitempty,min=1,max=64"`
	Mileage       *int64   `json:"mileage,omitempty" validate:"omitempty,min=0"`
	Notes         *string  `json:"notes,omitempty" validate:"omitempty,max=4000"`
	Images        []string `json:"images,omitempty"`
}

// JSONSnapshot stores raw JSON in a text or jsonb column.
type JSONSnapshot []byte

// Value implements driver.Valuer. Values are sent as text so jsonb columns
// accept them.
func (s JSONSnapshot) Value() (driver.Value, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return string(s), nil
}

// Scan implements sql.Scanner.
func (s *JSONSnapshot) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
	case []byte:
		*s = append(JSONSnapshot(nil), v...)
	case string:
		*s = JSONSnapshot(v)
	default:
		return fmt.Errorf("scan json snapshot: unsupported type %T", src)
	}
	return nil
}

// MarshalJSON embeds the snapshot verbatim.
func (s JSONSnapshot) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte(s), nil
}

// UnmarshalJSON keeps the raw document.
func (s *JSONSnapshot) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	*s = append(JSONSnapshot(nil), data...)
	return nil
}

// Decode unmarshals the snapshot into dst.
func (s JSONSnapshot) Decode(dst interface{}) error {
	if len(s) == 0 {
		return fmt.Errorf("empty snapshot")
	}
	return json.Unmarshal(s, dst)
}
