package rbac

import (
	"net/http"

	"leavedesk/internal/shared/apperror"
	"leavedesk/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	repo    Repository
}

func NewHandler(service Service, repo Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

func (h *Handler) ListPermissions(c *gin.Context) {
	perms, err := h.repo.ListPermissions()
	if err != nil {
		httpErr := apperror.ToHTTP(apperror.Storage(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	response.Success(c, http.StatusOK, perms, nil)
}

func (h *Handler) GetRolePermissions(c *gin.Context) {
	perms, err := h.repo.GetPermissionsByRole(c.Param("role"))
	if err != nil {
		httpErr := apperror.ToHTTP(apperror.Storage(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	response.Success(c, http.StatusOK, perms, nil)
}

func (h *Handler) UpdateRolePermissions(c *gin.Context) {
	var req struct {
		PermissionIDs []string `json:"permissionIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, nil)
		return
	}

	if err := h.repo.UpdateRolePermissions(c.Param("role"), req.PermissionIDs); err != nil {
		httpErr := apperror.ToHTTP(apperror.Storage(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": true}, nil)
}
