package notification

import (
	"leavedesk/internal/middleware"
	"leavedesk/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	notifications := r.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware())
	{
		notifications.GET("", middleware.RBACAuthorize(rbacService, "notification", "read"), handler.ListMine)
		notifications.PATCH("/:id/read", middleware.RBACAuthorize(rbacService, "notification", "update"), handler.MarkRead)
		notifications.PATCH("/read-all", middleware.RBACAuthorize(rbacService, "notification", "update"), handler.MarkAllRead)
	}
}
