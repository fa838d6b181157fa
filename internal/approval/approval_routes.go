package approval

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
	flows := r.Group("/departments/:id/approval-flow")
	flows.Use(middleware.AuthMiddleware())
	{
		flows.GET("", middleware.RBACAuthorize(rbacService, "approval", "read"), handler.GetChain)
	}
}
