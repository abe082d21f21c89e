package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/autohub-api/internal/models"
	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
	"github.com/noah-isme/autohub-api/pkg/response"
)

type editRequestService interface {
	GetRequest(ctx context.Context, id string) (*models.EditRequest, error)
	ListRequests(ctx context.Context, filter models.EditRequestFilter) ([]models.EditRequest, *models.Pagination, error)
	ApproveRequest(ctx context.Context, reviewer models.Actor, requestID string) (*models.EditRequest, error)
	RejectRequest(ctx context.Context, reviewer models.Actor, requestID string) (*models.EditRequest, error)
}

// EditRequestHandler serves the reviewer queue.
type EditRequestHandler struct {
	service editRequestService
}

// NewEditRequestHandler constructs the handler.
func NewEditRequestHandler(svc editRequestService) *EditRequestHandler {
	return &EditRequestHandler{service: svc}
}

// List godoc
// @Summary List edit requests
// @Tags Edit Requests
// @Produce json
// @Param status query string false "Comma separated statuses (PENDING, APPROVED, REJECTED, COMPLETED)"
// @Param record_id query string false "Record filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /edit-requests [get]
func (h *EditRequestHandler) List(c *gin.Context) {
	filter := models.EditRequestFilter{RecordID: c.Query("record_id")}
	filter.Limit, filter.Offset = limitOffset(c, 20)

	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := models.EditRequestStatus(strings.ToUpper(strings.TrimSpace(part)))
			switch status {
			case models.EditRequestPending, models.EditRequestApproved, models.EditRequestRejected, models.EditRequestCompleted:
				filter.Status = append(filter.Status, status)
			case "":
			default:
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown edit request status "+string(status)))
				return
			}
		}
	}

	requests, pagination, err := h.service.ListRequests(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Get edit request
// @Tags Edit Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /edit-requests/{id} [get]
func (h *EditRequestHandler) Get(c *gin.Context) {
	req, err := h.service.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, req, nil)
}

// Approve godoc
// @Summary Approve edit request
// @Description Grants a single edit to the requesting inspector
// @Tags Edit Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /edit-requests/{id}/approve [post]
func (h *EditRequestHandler) Approve(c *gin.Context) {
	req, err := h.service.ApproveRequest(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, req, nil)
}

// Reject godoc
// @Summary Reject edit request
// @Description Rejects the request and relocks the record
// @Tags Edit Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /edit-requests/{id}/reject [post]
func (h *EditRequestHandler) Reject(c *gin.Context) {
	req, err := h.service.RejectRequest(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, req, nil)
}
