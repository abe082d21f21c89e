package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/autohub-api/internal/models"
	"github.com/noah-isme/autohub-api/pkg/response"
)

type activityService interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, *models.Pagination, error)
}

type activityExporter interface {
	ActivityCSV(ctx context.Context) ([]byte, string, error)
}

// ActivityHandler exposes the activity ledger.
type ActivityHandler struct {
	service  activityService
	exporter activityExporter
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(svc activityService, exporter activityExporter) *ActivityHandler {
	return &ActivityHandler{service: svc, exporter: exporter}
}

// List godoc
// @Summary List activity logs
// @Description Ledger entries, most recent first
// @Tags Activity
// @Produce json
// @Param user_id query string false "Actor filter"
// @Param action query string false "Action filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /activity-logs [get]
func (h *ActivityHandler) List(c *gin.Context) {
	filter := models.ActivityFilter{
		UserID: c.Query("user_id"),
		Action: models.ActivityAction(strings.ToUpper(c.Query("action"))),
	}
	filter.Limit, filter.Offset = limitOffset(c, 50)

	entries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entries, pagination)
}

// Export godoc
// @Summary Export activity logs
// @Tags Activity
// @Produce text/csv
// @Success 200 {file} file
// @Router /activity-logs/export [get]
func (h *ActivityHandler) Export(c *gin.Context) {
	data, filename, err := h.exporter.ActivityCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Attachment(c, filename, "text/csv; charset=utf-8", data)
}
