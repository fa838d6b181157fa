package approval

import (
	"net/http"

	"leavedesk/internal/shared/apperror"
	"leavedesk/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetChain exposes a department's approver chain for the admin screens.
func (h *Handler) GetChain(c *gin.Context) {
	chain, err := h.service.ChainFor(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	approvers := make([]string, len(chain))
	for i, id := range chain {
		approvers[i] = id.String()
	}

	response.Success(c, http.StatusOK, gin.H{
		"department_id": c.Param("id"),
		"approvers":     approvers,
	}, nil)
}
