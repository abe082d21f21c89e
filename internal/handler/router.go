package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/autohub-api/internal/middleware"
	"github.com/noah-isme/autohub-api/internal/models"
)

// Handlers groups every API handler mounted under the API prefix.
type Handlers struct {
	Auth         *AuthHandler
	Records      *RecordHandler
	EditRequests *EditRequestHandler
	Users        *UserHandler
	Activity     *ActivityHandler
	Dashboard    *DashboardHandler
	Catalog      *CatalogHandler
	Attachments  *AttachmentHandler
}

// RegisterRoutes mounts the API on group.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator) {
	requireAuth := middleware.JWT(tokens)
	optionalAuth := middleware.OptionalJWT(tokens)
	reviewers := middleware.RequireReviewer()
	staff := middleware.RequireStaff()
	inspectors := middleware.RequireRoles(models.RoleInspector)

	auth := group.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/register", optionalAuth, h.Auth.Register)
	auth.GET("/me", requireAuth, h.Auth.Me)

	group.GET("/catalog", h.Catalog.Get)
	group.GET("/attachments/:token", h.Attachments.Download)

	records := group.Group("/records")
	records.GET("/search", optionalAuth, h.Records.Search)
	records.GET("/:id/certificate", h.Records.Certificate)
	records.POST("", requireAuth, inspectors, h.Records.Create)
	records.GET("/:id", requireAuth, staff, h.Records.Get)
	records.PUT("/:id", requireAuth, inspectors, h.Records.Update)
	records.POST("/:id/edit-requests", requireAuth, inspectors, h.Records.RequestEdit)
	records.POST("/:id/summary", requireAuth, staff, h.Records.RequestSummary)
	records.GET("/:id/summary", requireAuth, staff, h.Records.GetSummary)

	editRequests := group.Group("/edit-requests", requireAuth, reviewers)
	editRequests.GET("", h.EditRequests.List)
	editRequests.GET("/:id", h.EditRequests.Get)
	editRequests.POST("/:id/approve", h.EditRequests.Approve)
	editRequests.POST("/:id/reject", h.EditRequests.Reject)

	users := group.Group("/users", requireAuth, reviewers)
	users.GET("", h.Users.List)
	users.PATCH("/:id/status", h.Users.UpdateStatus)
	users.PATCH("/:id/role", h.Users.UpdateRole)
	users.PATCH("/:id/password", h.Users.UpdatePassword)
	users.DELETE("/:id", h.Users.Delete)

	activity := group.Group("/activity-logs", requireAuth, reviewers)
	activity.GET("", h.Activity.List)
	activity.GET("/export", h.Activity.Export)

	group.GET("/dashboard/stats", requireAuth, staff, h.Dashboard.Stats)
}
