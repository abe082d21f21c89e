package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/autohub-api/internal/models"
	"github.com/noah-isme/autohub-api/pkg/response"
)

// CatalogHandler serves the fixed brand and color lists.
type CatalogHandler struct {
	catalog models.Catalog
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(catalog models.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Get godoc
// @Summary Form catalog
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalog, nil)
}
