package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/autohub-api/internal/models"
	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
)

type fakeEditRequestSrv struct {
	filter   models.EditRequestFilter
	reviewer models.Actor
}

func (f *fakeEditRequestSrv) GetRequest(_ context.Context, id string) (*models.EditRequest, error) {
	if id != "req-1" {
		return nil, appErrors.ErrRequestNotFound
	}
	return &models.EditRequest{ID: id, Status: models.EditRequestPending}, nil
}

func (f *fakeEditRequestSrv) ListRequests(_ context.Context, filter models.EditRequestFilter) ([]models.EditRequest, *models.Pagination, error) {
	f.filter = filter
	return []models.EditRequest{{ID: "req-1", Status: models.EditRequestPending}}, &models.Pagination{Page: 1, PageSize: filter.Limit, TotalCount: 1}, nil
}

func (f *fakeEditRequestSrv) ApproveRequest(_ context.Context, reviewer models.Actor, id string) (*models.EditRequest, error) {
	f.reviewer = reviewer
	return &models.EditRequest{ID: id, Status: models.EditRequestApproved, AllowedEditsCount: 1}, nil
}

func (f *fakeEditRequestSrv) RejectRequest(_ context.Context, reviewer models.Actor, id string) (*models.EditRequest, error) {
	f.reviewer = reviewer
	return nil, appErrors.Clone(appErrors.ErrInvalidStateForApproval, "edit request "+id+" is APPROVED")
}

func TestEditRequestHandlerListParsesStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeEditRequestSrv{}
	handler := NewEditRequestHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/edit-requests?status=pending,%20approved&page=2&page_size=5", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.EditRequestStatus{models.EditRequestPending, models.EditRequestApproved}, srv.filter.Status)
	assert.Equal(t, 5, srv.filter.Limit)
	assert.Equal(t, 5, srv.filter.Offset)

	var envelope listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, float64(1), envelope.Pagination["total_count"])
}

func TestEditRequestHandlerListRejectsUnknownStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEditRequestHandler(&fakeEditRequestSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/edit-requests?status=DONE", nil)

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditRequestHandlerReview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeEditRequestSrv{}
	handler := NewEditRequestHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/edit-requests/req-1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	withClaims(c, "mod-1", models.RoleModerator)
	handler.Approve(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mod-1", srv.reviewer.ID)
	assert.Equal(t, "APPROVED", decodeEnvelope(t, rec).Data["status"])

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/edit-requests/req-1/reject", nil)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	withClaims(c, "mod-1", models.RoleModerator)
	handler.Reject(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_STATE_FOR_APPROVAL", decodeEnvelope(t, rec).Error["code"])
}

func TestEditRequestHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEditRequestHandler(&fakeEditRequestSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/edit-requests/nope", nil)
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "REQUEST_NOT_FOUND", decodeEnvelope(t, rec).Error["code"])
}
