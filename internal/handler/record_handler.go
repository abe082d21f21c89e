package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/autohub-api/internal/models"
	"github.com/noah-isme/autohub-api/internal/service"
	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
	"github.com/noah-isme/autohub-api/pkg/response"
)

type recordService interface {
	CreateRecord(ctx context.Context, author models.Actor, input service.CreateRecordInput) (*models.InspectionRecord, error)
	GetView(ctx context.Context, caller models.Actor, id string) (interface{}, error)
	Search(ctx context.Context, caller models.Actor, filter models.SearchFilter) (service.SearchResult, error)
}

type recordWorkflow interface {
	RequestEditPermission(ctx context.Context, requester models.Actor, recordID string) (*models.EditRequest, error)
	PerformEdit(ctx context.Context, editor models.Actor, recordID string, patch models.RecordPatch) (*models.InspectionRecord, error)
}

type summaryService interface {
	RequestSummary(ctx context.Context, recordID string) (*service.SummaryTicket, error)
	GetSummary(ctx context.Context, recordID string) (*models.RecordSummary, error)
}

type certificateService interface {
	Certificate(ctx context.Context, recordID string) ([]byte, string, error)
}

// RecordHandler exposes inspection record endpoints.
type RecordHandler struct {
	records      recordService
	workflow     recordWorkflow
	summaries    summaryService
	certificates certificateService
}

// NewRecordHandler constructs the handler.
func NewRecordHandler(records recordService, workflow recordWorkflow, summaries summaryService, certificates certificateService) *RecordHandler {
	return &RecordHandler{records: records, workflow: workflow, summaries: summaries, certificates: certificates}
}

// Search godoc
// @Summary Search inspection records
// @Description Anonymous and USER callers only get an exact chassis match in the redacted shape. Staff may filter by free text, brand and chassis.
// @Tags Records
// @Produce json
// @Param q query string false "Brand or type contains"
// @Param brand query string false "Exact brand"
// @Param chassis_number query string false "Chassis number"
// @Param page query int false "Page (staff only)"
// @Param page_size query int false "Page size (staff only, max 100)"
// @Success 200 {object} response.Envelope
// @Router /records/search [get]
func (h *RecordHandler) Search(c *gin.Context) {
	var filter models.SearchFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid search query"))
		return
	}

	filter.Page, filter.PageSize = pageParams(c, 20)

	result, err := h.records.Search(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result.Items(), result.Pagination, map[string]interface{}{"count": result.Len()})
}

// Create godoc
// @Summary Create inspection record
// @Description Creates a LOCKED record authored by the calling inspector
// @Tags Records
// @Accept json
// @Produce json
// @Param payload body service.CreateRecordInput true "Record payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /records [post]
func (h *RecordHandler) Create(c *gin.Context) {
	var input service.CreateRecordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid record payload"))
		return
	}

	record, err := h.records.CreateRecord(c.Request.Context(), actorFromContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, record)
}

// Get godoc
// @Summary Get inspection record
// @Tags Records
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /records/{id} [get]
func (h *RecordHandler) Get(c *gin.Context) {
	view, err := h.records.GetView(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// Update godoc
// @Summary Edit inspection record
// @Description Consumes the caller's approved edit grant and relocks the record
// @Tags Records
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body models.RecordPatch true "Changed fields"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /records/{id} [put]
func (h *RecordHandler) Update(c *gin.Context) {
	var patch models.RecordPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid record payload"))
		return
	}

	record, err := h.workflow.PerformEdit(c.Request.Context(), actorFromContext(c), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record, nil)
}

// RequestEdit godoc
// @Summary Request edit permission
// @Description Opens a PENDING edit request on a LOCKED record authored by the caller
// @Tags Records
// @Produce json
// @Param id path string true "Record ID"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /records/{id}/edit-requests [post]
func (h *RecordHandler) RequestEdit(c *gin.Context) {
	req, err := h.workflow.RequestEditPermission(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, req)
}

// RequestSummary godoc
// @Summary Queue record summary
// @Tags Records
// @Produce json
// @Param id path string true "Record ID"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /records/{id}/summary [post]
func (h *RecordHandler) RequestSummary(c *gin.Context) {
	ticket, err := h.summaries.RequestSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Accepted(c, ticket)
}

// GetSummary godoc
// @Summary Get record summary
// @Tags Records
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /records/{id}/summary [get]
func (h *RecordHandler) GetSummary(c *gin.Context) {
	summary, err := h.summaries.GetSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// Certificate godoc
// @Summary Download inspection certificate
// @Description Renders the redacted record view as PDF
// @Tags Records
// @Produce application/pdf
// @Param id path string true "Record ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /records/{id}/certificate [get]
func (h *RecordHandler) Certificate(c *gin.Context) {
	data, filename, err := h.certificates.Certificate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Attachment(c, filename, "application/pdf", data)
}
