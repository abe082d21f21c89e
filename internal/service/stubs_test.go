package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/autohub-api/internal/models"
	"github.com/noah-isme/autohub-api/internal/repository"
)

// memStore mirrors the guarded repository transitions in memory.
type memStore struct {
	mu       sync.Mutex
	records  map[string]*models.InspectionRecord
	requests map[string]*models.EditRequest
	users    map[string]*models.User
	ledger   []models.ActivityLog
	seq      int64
}

func newMemStore() *memStore {
	return &memStore{
		records:  make(map[string]*models.InspectionRecord),
		requests: make(map[string]*models.EditRequest),
		users:    make(map[string]*models.User),
	}
}

// records

func (m *memStore) Create(ctx context.Context, record *models.InspectionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := models.ChassisKey(record.ChassisNumber)
	for _, r := range m.records {
		if r.ChassisKey == key {
			return repository.ErrDuplicate
		}
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.ChassisKey = key
	cp := *record
	m.records[record.ID] = &cp
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*models.InspectionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) FindByChassis(ctx context.Context, chassis string) (*models.InspectionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := models.ChassisKey(chassis)
	for _, r := range m.records {
		if r.ChassisKey == key {
			cp := *r
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) List(ctx context.Context, filter models.RecordFilter) ([]models.InspectionRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.InspectionRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChassisNumber < out[j].ChassisNumber })
	return out, len(out), nil
}

func (m *memStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *memStore) put(r models.InspectionRecord) *models.InspectionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ChassisKey = models.ChassisKey(r.ChassisNumber)
	if r.Status == "" {
		r.Status = models.RecordStatusLocked
	}
	m.records[r.ID] = &r
	return &r
}

func (m *memStore) record(id string) models.InspectionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.records[id]
}

func (m *memStore) request(id string) models.EditRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.requests[id]
}

func (m *memStore) activeRequests(recordID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, q := range m.requests {
		if q.RecordID == recordID && q.Status.Active() {
			n++
		}
	}
	return n
}

// edit requests

type editRequestMem struct{ *memStore }

func (e editRequestMem) GetByID(ctx context.Context, id string) (*models.EditRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *q
	return &cp, nil
}

func (e editRequestMem) FindByRecordAndStatus(ctx context.Context, recordID string, status models.EditRequestStatus) (*models.EditRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, q := range e.requests {
		if q.RecordID == recordID && q.Status == status {
			cp := *q
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (e editRequestMem) List(ctx context.Context, filter models.EditRequestFilter) ([]models.EditRequest, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.EditRequest, 0)
	for _, q := range e.requests {
		if len(filter.Status) > 0 && !containsStatus(filter.Status, q.Status) {
			continue
		}
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, len(out), nil
}

func (e editRequestMem) CountByStatus(ctx context.Context, status models.EditRequestStatus) (int, error) {
	list, _, _ := e.List(ctx, models.EditRequestFilter{Status: []models.EditRequestStatus{status}})
	return len(list), nil
}

func (e editRequestMem) CreateRequest(ctx context.Context, req *models.EditRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.records[req.RecordID]
	if !ok || rec.Status != models.RecordStatusLocked {
		return sql.ErrNoRows
	}
	for _, q := range e.requests {
		if q.RecordID == req.RecordID && q.Status.Active() {
			return sql.ErrNoRows
		}
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Status = models.EditRequestPending
	req.AllowedEditsCount = 1
	req.UsedEditsCount = 0
	rec.Status = models.RecordStatusPendingPermission
	cp := *req
	e.requests[req.ID] = &cp
	return nil
}

func (e editRequestMem) Approve(ctx context.Context, p repository.ReviewParams) error {
	return e.review(p, models.EditRequestApproved, models.RecordStatusPermissionGranted)
}

func (e editRequestMem) Reject(ctx context.Context, p repository.ReviewParams) error {
	return e.review(p, models.EditRequestRejected, models.RecordStatusLocked)
}

func (e editRequestMem) review(p repository.ReviewParams, to models.EditRequestStatus, recordTo models.RecordStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.requests[p.RequestID]
	if !ok || q.Status != models.EditRequestPending {
		return sql.ErrNoRows
	}
	rec, ok := e.records[p.RecordID]
	if !ok || rec.Status != models.RecordStatusPendingPermission {
		return sql.ErrNoRows
	}
	q.Status = to
	reviewer := p.ReviewerID
	at := p.ReviewedAt
	q.ReviewedBy = &reviewer
	q.ReviewedAt = &at
	rec.Status = recordTo
	return nil
}

func (e editRequestMem) ApplyEdit(ctx context.Context, p repository.ApplyEditParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.records[p.Record.ID]
	if !ok || rec.Status != models.RecordStatusPermissionGranted {
		return sql.ErrNoRows
	}
	key := models.ChassisKey(p.Record.ChassisNumber)
	for id, r := range e.records {
		if id != rec.ID && r.ChassisKey == key {
			return repository.ErrDuplicate
		}
	}
	q, ok := e.requests[p.RequestID]
	if !ok || q.Status != models.EditRequestApproved || q.UsedEditsCount >= q.AllowedEditsCount {
		return sql.ErrNoRows
	}
	updated := *p.Record
	updated.ChassisKey = key
	updated.Status = models.RecordStatusLocked
	*rec = updated
	q.Status = models.EditRequestCompleted
	q.UsedEditsCount++
	q.OldData = p.OldData
	q.NewData = p.NewData
	at := p.CompletedAt
	q.CompletedAt = &at
	return nil
}

func containsStatus(list []models.EditRequestStatus, s models.EditRequestStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ledger

type ledgerMem struct{ *memStore }

func (l ledgerMem) Append(ctx context.Context, entry *models.ActivityLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	entry.Seq = l.seq
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	l.ledger = append(l.ledger, *entry)
	return nil
}

func (l ledgerMem) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.ActivityLog, 0, len(l.ledger))
	for i := len(l.ledger) - 1; i >= 0; i-- {
		if filter.Action != "" && l.ledger[i].Action != filter.Action {
			continue
		}
		out = append(out, l.ledger[i])
	}
	return out, len(out), nil
}

func (m *memStore) actions() []models.ActivityAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ActivityAction, 0, len(m.ledger))
	for _, e := range m.ledger {
		out = append(out, e.Action)
	}
	return out
}

func (m *memStore) lastEntry() models.ActivityLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger[len(m.ledger)-1]
}

// users

type userMem struct{ *memStore }

func (u userMem) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (u userMem) FindByID(ctx context.Context, id string) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *user
	return &cp, nil
}

func (u userMem) Create(ctx context.Context, user *models.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.users {
		if existing.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	cp := *user
	u.users[user.ID] = &cp
	return nil
}

func (u userMem) CountByRole(ctx context.Context, role models.UserRole, active *bool) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, user := range u.users {
		if user.Role == role && (active == nil || user.Active == *active) {
			n++
		}
	}
	return n, nil
}

func (u userMem) Count(ctx context.Context) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.users), nil
}

func (u userMem) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]models.User, 0, len(u.users))
	for _, user := range u.users {
		out = append(out, *user)
	}
	return out, len(out), nil
}

func (u userMem) update(id string, fn func(*models.User)) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	fn(user)
	return nil
}

func (u userMem) UpdateActive(ctx context.Context, id string, active bool, at time.Time) error {
	return u.update(id, func(user *models.User) { user.Active = active; user.UpdatedAt = at })
}

func (u userMem) UpdateRole(ctx context.Context, id string, role models.UserRole, at time.Time) error {
	return u.update(id, func(user *models.User) { user.Role = role; user.UpdatedAt = at })
}

func (u userMem) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	return u.update(id, func(user *models.User) { user.PasswordHash = hash; user.UpdatedAt = at })
}

func (u userMem) Delete(ctx context.Context, id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(u.users, id)
	return nil
}
