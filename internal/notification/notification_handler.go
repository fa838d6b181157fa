package notification

import (
	"net/http"
	"strconv"

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

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) ListMine(c *gin.Context) {
	recipientID := c.GetString("employee_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 {
		pageSize = 20
	}

	notifications, unread, err := h.service.ListMine(c.Request.Context(), recipientID, pageSize, (page-1)*pageSize)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"notifications": notifications,
		"unreadCount":   unread,
	}, nil)
}

func (h *Handler) MarkRead(c *gin.Context) {
	recipientID := c.GetString("employee_id")

	if err := h.service.MarkRead(c.Request.Context(), c.Param("id"), recipientID); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"read": true}, nil)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	recipientID := c.GetString("employee_id")

	if err := h.service.MarkAllRead(c.Request.Context(), recipientID); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"read": true}, nil)
}
