package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/autohub-api/internal/models"
	"github.com/noah-isme/autohub-api/internal/service"
	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
)

type fakeActivitySrv struct {
	filter models.ActivityFilter
}

func (f *fakeActivitySrv) List(_ context.Context, filter models.ActivityFilter) ([]models.ActivityLog, *models.Pagination, error) {
	f.filter = filter
	return []models.ActivityLog{{ID: "log-1", Action: models.ActivityLogin, CreatedAt: time.Unix(0, 0).UTC()}}, &models.Pagination{Page: 1, PageSize: filter.Limit, TotalCount: 1}, nil
}

type fakeExporter struct{}

func (fakeExporter) ActivityCSV(context.Context) ([]byte, string, error) {
	return []byte("timestamp,user_id,username,action,details\n"), "activity-logs.csv", nil
}

type fakeAttachmentSrv struct{}

func (fakeAttachmentSrv) Open(_ context.Context, token string) ([]byte, string, error) {
	if token != "good" {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
	}
	return []byte{0x89, 'P', 'N', 'G'}, "image/png", nil
}

type pingStub struct{ err error }

func (p pingStub) PingContext(context.Context) error { return p.err }

func TestActivityHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeActivitySrv{}
	handler := NewActivityHandler(srv, fakeExporter{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/activity-logs?action=login&user_id=u1", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ActivityLogin, srv.filter.Action)
	assert.Equal(t, "u1", srv.filter.UserID)
	assert.Equal(t, 50, srv.filter.Limit)
	assert.Contains(t, rec.Body.String(), `"action":"LOGIN"`)
}

func TestActivityHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewActivityHandler(&fakeActivitySrv{}, fakeExporter{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/activity-logs/export", nil)

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "activity-logs.csv")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestCatalogHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCatalogHandler(models.DefaultCatalog())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/catalog", nil)

	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Len(t, envelope.Data["brands"], len(models.CarBrands))
	assert.Len(t, envelope.Data["colors"], len(models.CarColors))
}

func TestAttachmentHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttachmentHandler(fakeAttachmentSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/attachments/good", nil)
	c.Params = gin.Params{{Key: "token", Value: "good"}}
	handler.Download(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/attachments/forged", nil)
	c.Params = gin.Params{{Key: "token", Value: "forged"}}
	handler.Download(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsHandlerEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/catalog", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	NewMetricsHandler(metrics, nil).Prometheus(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/catalog")

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	NewMetricsHandler(metrics, pingStub{}).Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	NewMetricsHandler(metrics, pingStub{err: errors.New("down")}).Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
	NewMetricsHandler(nil, nil).Health(c)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
