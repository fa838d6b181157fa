package leave

import (
	"leavedesk/internal/middleware"
	"leavedesk/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	redisClient *redis.Client,
) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		leaves.POST("",
			middleware.RBACAuthorize(rbacService, "leave", "create"),
			middleware.Idempotency(redisClient),
			handler.Submit)
		leaves.GET("/pending", middleware.RBACAuthorize(rbacService, "leave", "approve"), handler.ListPending)
		leaves.GET("/history", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.History)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetById)
		leaves.POST("/:id/decision",
			middleware.RBACAuthorize(rbacService, "leave", "approve"),
			middleware.Idempotency(redisClient),
			handler.Decide)
		leaves.POST("/:id/cancel",
			middleware.RBACAuthorize(rbacService, "leave", "cancel"),
			handler.Cancel)
	}
}
