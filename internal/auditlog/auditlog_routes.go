package auditlog

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
	logs := r.Group("/activity-logs")
	logs.Use(middleware.AuthMiddleware())
	{
		logs.GET("", middleware.RBACAuthorize(rbacService, "auditlog", "read"), handler.List)
	}
}
