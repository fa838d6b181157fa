package department

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
	departments := r.Group("/departments")
	departments.Use(middleware.AuthMiddleware())
	{
		departments.GET("", middleware.RBACAuthorize(rbacService, "department", "read"), handler.GetAll)
		departments.GET("/:id", middleware.RBACAuthorize(rbacService, "department", "read"), handler.GetById)
		departments.POST("", middleware.RBACAuthorize(rbacService, "department", "create"), handler.Create)
		departments.PUT("/:id", middleware.RBACAuthorize(rbacService, "department", "update"), handler.Update)
		departments.DELETE("/:id", middleware.RBACAuthorize(rbacService, "department", "delete"), handler.Delete)
	}
}
