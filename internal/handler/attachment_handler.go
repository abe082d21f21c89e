package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/autohub-api/pkg/response"
)

type attachmentReader interface {
	Open(ctx context.Context, token string) ([]byte, string, error)
}

// AttachmentHandler serves record images behind signed tokens.
type AttachmentHandler struct {
	service attachmentReader
}

// NewAttachmentHandler constructs the handler.
func NewAttachmentHandler(svc attachmentReader) *AttachmentHandler {
	return &AttachmentHandler{service: svc}
}

// Download godoc
// @Summary Download record image
// @Tags Attachments
// @Produce image/jpeg,image/png,image/webp
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /attachments/{token} [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	data, contentType, err := h.service.Open(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, contentType, data)
}
