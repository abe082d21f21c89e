package models

import "time"

// RecordSummary is the cached output of the summarization collaborator.
type RecordSummary struct {
	RecordID    string    `json:"record_id"`
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
}

// DashboardStats aggregates the counters shown to staff.
type DashboardStats struct {
	TotalRecords       int `json:"total_records"`
	PendingRequests    int `json:"pending_requests"`
	ApprovedRequests   int `json:"approved_requests"`
	TotalUsers         int `json:"total_users"`
	InactiveInspectors int `json:"inactive_inspectors"`
}
