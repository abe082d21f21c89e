package models

import "time"

// ActivityAction tags a ledger entry.
type ActivityAction string

const (
	ActivityLogin        ActivityAction = "LOGIN"
	ActivityRegister     ActivityAction = "REGISTER"
	ActivityAddCar       ActivityAction = "ADD_CAR"
	ActivityRequestEdit  ActivityAction = "REQUEST_EDIT"
	ActivityApproveEdit  ActivityAction = "APPROVE_EDIT"
	ActivityRejectEdit   ActivityAction = "REJECT_EDIT"
	ActivityEditCar      ActivityAction = "EDIT_CAR"
	ActivityUserStatus   ActivityAction = "USER_STATUS"
	ActivityUserRole     ActivityAction = "USER_ROLE"
	ActivityUserPassword ActivityAction = "USER_PASSWORD"
	ActivityDeleteUser   ActivityAction = "DELETE_USER"
)

// ActivityLog is an append-only ledger entry.
type ActivityLog struct {
	Seq       int64          `db:"seq" json:"-"`
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user_id"`
	Username  string         `db:"username" json:"username"`
	Action    ActivityAction `db:"action" json:"action"`
	Details   string         `db:"details" json:"details"`
	CreatedAt time.Time      `db:"created_at" json:"timestamp"`
}

// ActivityFilter constrains ledger reads.
type ActivityFilter struct {
	UserID string
	Action ActivityAction
	Limit  int
	Offset int
}
