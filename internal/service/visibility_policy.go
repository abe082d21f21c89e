package service

import (
	"strings"

	"github.com/noah-isme/autohub-api/internal/models"
)

// VisibilityPolicy decides which records a caller may see and in which shape.
// Callers without a staff role (including anonymous ones) only get exact
// chassis lookups and the redacted view.
type VisibilityPolicy struct{}

// Redacted reports whether the caller receives PublicRecordView values.
func (VisibilityPolicy) Redacted(caller models.Actor) bool {
	return !caller.Role.IsStaff()
}

// Search filters records for the caller.
func (p VisibilityPolicy) Search(records []models.InspectionRecord, caller models.Actor, filter models.SearchFilter) []models.InspectionRecord {
	out := make([]models.InspectionRecord, 0)
	if p.Redacted(caller) {
		key := models.ChassisKey(filter.ChassisNumber)
		if key == "" {
			return out
		}
		for _, r := range records {
			if models.ChassisKey(r.ChassisNumber) == key {
				out = append(out, r)
			}
		}
		return out
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	brand := strings.TrimSpace(filter.Brand)
	chassis := models.ChassisKey(filter.ChassisNumber)
	for _, r := range records {
		if query != "" && !strings.Contains(strings.ToLower(r.Brand), query) && !strings.Contains(strings.ToLower(r.Type), query) {
			continue
		}
		if brand != "" && r.Brand != brand {
			continue
		}
		if chassis != "" && !strings.Contains(models.ChassisKey(r.ChassisNumber), chassis) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// PublicView strips status, inspector id and affordances.
func (VisibilityPolicy) PublicView(r models.InspectionRecord) models.PublicRecordView {
	images := []string(r.Images)
	if images == nil {
		images = []string{}
	}
	return models.PublicRecordView{
		ID:            r.ID,
		Brand:         r.Brand,
		Type:          r.Type,
		Model:         r.Model,
		Color:         r.Color,
		ChassisNumber: r.ChassisNumber,
		Mileage:       r.Mileage,
		Notes:         r.Notes,
		Images:        images,
		InspectorName: r.InspectorName,
		InspectedAt:   r.InspectedAt,
	}
}

// StaffView returns the full record plus the caller's affordances.
func (p VisibilityPolicy) StaffView(r models.InspectionRecord, caller models.Actor) models.StaffRecordView {
	return models.StaffRecordView{InspectionRecord: r, Actions: p.Actions(r, caller)}
}

// Actions lists what the caller may do with the record in its current state.
func (VisibilityPolicy) Actions(r models.InspectionRecord, caller models.Actor) []models.RecordAction {
	actions := make([]models.RecordAction, 0, 2)
	if !caller.Role.IsStaff() {
		return actions
	}
	isAuthor := caller.Role == models.RoleInspector && caller.ID == r.InspectorID
	switch {
	case isAuthor && r.Status == models.RecordStatusLocked:
		actions = append(actions, models.ActionRequestEdit)
	case isAuthor && r.Status == models.RecordStatusPermissionGranted:
		actions = append(actions, models.ActionPerformEdit)
	}
	return append(actions, models.ActionSummarize)
}

// SearchResult carries either redacted or staff views.
type SearchResult struct {
	Redacted bool
	Public   []models.PublicRecordView
	Staff    []models.StaffRecordView
	// Pagination is set for staff searches.
	Pagination *models.Pagination
}

// Items returns the populated slice for serialisation.
func (r SearchResult) Items() interface{} {
	if r.Redacted {
		return r.Public
	}
	return r.Staff
}

// Len returns the number of matched records.
func (r SearchResult) Len() int {
	if r.Redacted {
		return len(r.Public)
	}
	return len(r.Staff)
}

// Present shapes filtered records for the caller.
func (p VisibilityPolicy) Present(records []models.InspectionRecord, caller models.Actor) SearchResult {
	if p.Redacted(caller) {
		views := make([]models.PublicRecordView, 0, len(records))
		for _, r := range records {
			views = append(views, p.PublicView(r))
		}
		return SearchResult{Redacted: true, Public: views}
	}
	views := make([]models.StaffRecordView, 0, len(records))
	for _, r := range records {
		views = append(views, p.StaffView(r, caller))
	}
	return SearchResult{Staff: views}
}
