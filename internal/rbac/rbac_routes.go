package rbac

import (
	"leavedesk/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, service Service) {
	rbacGroup := r.Group("/rbac")
	rbacGroup.Use(middleware.AuthMiddleware())
	{
		rbacGroup.GET("/permissions", middleware.RBACAuthorize(service, "rbac", "read"), handler.ListPermissions)
		rbacGroup.GET("/roles/:role/permissions", middleware.RBACAuthorize(service, "rbac", "read"), handler.GetRolePermissions)
		rbacGroup.PUT("/roles/:role/permissions", middleware.RBACAuthorize(service, "rbac", "manage"), handler.UpdateRolePermissions)
	}
}
