package leave

import (
	"encoding/json"
	"net/http"
	"time"

	"leavedesk/internal/shared/apperror"
	"leavedesk/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const idempotencyCacheTTL = 24 * time.Hour

type Handler struct {
	service Service
	rdb     *redis.Client
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, logger: l}
}

func NewHandlerWithRedis(service Service, rdb *redis.Client, logger ...*zap.Logger) *Handler {
	h := NewHandler(service, logger...)
	h.rdb = rdb
	return h
}

// releaseIdempotencyLock frees the in-flight lock the Idempotency
// middleware took for this request, success or failure.
func (h *Handler) releaseIdempotencyLock(c *gin.Context) {
	if h.rdb == nil {
		return
	}
	if lockKey := c.GetString("idempotency_lock_key"); lockKey != "" {
		h.rdb.Del(c.Request.Context(), lockKey)
	}
}

// cacheIdempotentResponse stores the successful response under the
// middleware's cache key so a retried Idempotency-Key replays it
// instead of re-executing the transition.
func (h *Handler) cacheIdempotentResponse(c *gin.Context, resp any) {
	if h.rdb == nil {
		return
	}
	cacheKey := c.GetString("idempotency_cache_key")
	if cacheKey == "" {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := h.rdb.Set(c.Request.Context(), cacheKey, string(payload), idempotencyCacheTTL).Err(); err != nil {
		h.logger.Warn("cache idempotent response failed", zap.Error(err))
	}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("leave request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Submit(c *gin.Context) {
	defer h.releaseIdempotencyLock(c)

	var req SubmitLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, nil)
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), c.GetString("employee_id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Decide(c *gin.Context) {
	defer h.releaseIdempotencyLock(c)

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, nil)
		return
	}

	resp, err := h.service.Decide(
		c.Request.Context(), c.Param("id"), c.GetString("employee_id"), Decision(req.Decision))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Cancel(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, mapped.Status, mapped.Code, mapped.Message, nil)
		return
	}

	resp, err := h.service.Cancel(
		c.Request.Context(), c.Param("id"), c.GetString("employee_id"), req.Password)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

// ListPending returns the requests currently waiting on the caller.
func (h *Handler) ListPending(c *gin.Context) {
	resp, err := h.service.ListPendingFor(c.Request.Context(), c.GetString("employee_id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

// History returns the caller's own requests, newest first.
func (h *Handler) History(c *gin.Context) {
	resp, err := h.service.GetHistoryFor(c.Request.Context(), c.GetString("employee_id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetById(c *gin.Context) {
	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
