package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/autohub-api/internal/middleware"
	"github.com/noah-isme/autohub-api/internal/models"
)

const maxPageSize = 100

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext resolves the caller. Anonymous callers act as USER.
func actorFromContext(c *gin.Context) models.Actor {
	return models.ActorFromClaims(claimsFromContext(c))
}

func pageParams(c *gin.Context, defaultSize int) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultSize)))
	if err != nil || size < 1 {
		size = defaultSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func limitOffset(c *gin.Context, defaultSize int) (int, int) {
	page, size := pageParams(c, defaultSize)
	return size, (page - 1) * size
}
