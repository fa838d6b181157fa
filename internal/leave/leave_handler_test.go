package leave_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leavedesk/internal/leave"
	leaveerrors "leavedesk/internal/leave/errors"
	ledgererrors "leavedesk/internal/ledger/errors"
	"leavedesk/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	err := json.Unmarshal(body, &env)
	assert.NoError(t, err)
	return env
}

type fakeLeaveService struct {
	submitFn         func(ctx context.Context, employeeID string, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error)
	decideFn         func(ctx context.Context, requestID, actorID string, decision leave.Decision) (leave.LeaveResponse, error)
	cancelFn         func(ctx context.Context, requestID, actorID, password string) (leave.LeaveResponse, error)
	listPendingForFn func(ctx context.Context, approverID string) ([]leave.LeaveResponse, error)
	getHistoryForFn  func(ctx context.Context, employeeID string) ([]leave.LeaveResponse, error)
	getByIDFn        func(ctx context.Context, id string) (leave.LeaveResponse, error)
}

func (f *fakeLeaveService) Submit(ctx context.Context, employeeID string, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error) {
	return f.submitFn(ctx, employeeID, req)
}
func (f *fakeLeaveService) Decide(ctx context.Context, requestID, actorID string, decision leave.Decision) (leave.LeaveResponse, error) {
	return f.decideFn(ctx, requestID, actorID, decision)
}
func (f *fakeLeaveService) Cancel(ctx context.Context, requestID, actorID, password string) (leave.LeaveResponse, error) {
	return f.cancelFn(ctx, requestID, actorID, password)
}
func (f *fakeLeaveService) ListPendingFor(ctx context.Context, approverID string) ([]leave.LeaveResponse, error) {
	return f.listPendingForFn(ctx, approverID)
}
func (f *fakeLeaveService) GetHistoryFor(ctx context.Context, employeeID string) ([]leave.LeaveResponse, error) {
	return f.getHistoryForFn(ctx, employeeID)
}
func (f *fakeLeaveService) GetByID(ctx context.Context, id string) (leave.LeaveResponse, error) {
	return f.getByIDFn(ctx, id)
}

func TestLeaveHandler_Submit(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		actorID := uuid.NewString()
		leaveTypeID := uuid.NewString()

		svc := &fakeLeaveService{
			submitFn: func(ctx context.Context, employeeID string, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error) {
				assert.Equal(t, actorID, employeeID)
				assert.Equal(t, leaveTypeID, req.LeaveTypeID)
				assert.Equal(t, "Family visit", req.Reason)
				return leave.LeaveResponse{
					ID:            uuid.NewString(),
					RequestNumber: "REQ-000042",
					EmployeeID:    employeeID,
					Status:        string(leave.StatusPending),
				}, nil
			},
		}

		h := leave.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"leaveTypeId":"` + leaveTypeID + `","startDate":"2026-09-07","endDate":"2026-09-11","days":5,"reason":"Family visit"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("employee_id", actorID)

		h.Submit(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got leave.LeaveResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "REQ-000042", got.RequestNumber)
		assert.Equal(t, string(leave.StatusPending), got.Status)
	})

	t.Run("negative validation error", func(t *testing.T) {
		h := leave.NewHandler(&fakeLeaveService{}, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		h.Submit(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})

	t.Run("negative insufficient balance", func(t *testing.T) {
		svc := &fakeLeaveService{
			submitFn: func(ctx context.Context, employeeID string, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, ledgererrors.ErrInsufficientBalance
			},
		}
		h := leave.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"leaveTypeId":"` + uuid.NewString() + `","startDate":"2026-09-07","endDate":"2026-09-11","reason":"Family visit"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("employee_id", uuid.NewString())

		h.Submit(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "INSUFFICIENT_BALANCE", env.Error.Code)
	})

	t.Run("negative service error", func(t *testing.T) {
		svc := &fakeLeaveService{
			submitFn: func(ctx context.Context, employeeID string, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, errors.New("create failed")
			},
		}
		h := leave.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		body := `{"leaveTypeId":"` + uuid.NewString() + `","startDate":"2026-09-07","endDate":"2026-09-11","reason":"Family visit"}`
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Set("employee_id", uuid.NewString())

		h.Submit(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	})
}

func TestLeaveHandler_SubmitIdempotency(t *testing.T) {
	gin.SetMode(gin.TestMode)

	employeeID := uuid.NewString()
	body := `{"leaveTypeId":"` + uuid.NewString() + `","startDate":"2026-09-07","endDate":"2026-09-11","days":5,"reason":"Family visit"}`
	cacheKey := "idemp:/leaves:" + employeeID + ":key-9"
	lockKey := cacheKey + ":lock"

	setup := func(svc *fakeLeaveService) (*gin.Engine, redismock.ClientMock) {
		rdb, mock := redismock.NewClientMock()
		h := leave.NewHandlerWithRedis(svc, rdb, zap.NewNop())
		r := gin.New()
		r.POST("/leaves", func(c *gin.Context) {
			c.Set("employee_id", employeeID)
		}, middleware.Idempotency(rdb), h.Submit)
		return r, mock
	}

	post := func(r *gin.Engine) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/leaves", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "key-9")
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("first call caches the response and releases the lock", func(t *testing.T) {
		submitCalls := 0
		svc := &fakeLeaveService{
			submitFn: func(ctx context.Context, eid string, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error) {
				submitCalls++
				return leave.LeaveResponse{
					ID:            uuid.NewString(),
					RequestNumber: "REQ-000042",
					EmployeeID:    eid,
					Status:        string(leave.StatusPending),
				}, nil
			},
		}
		r, mock := setup(svc)

		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(lockKey, "locked", 30*time.Second).SetVal(true)
		mock.Regexp().ExpectSet(cacheKey, `.*REQ-000042.*`, 24*time.Hour).SetVal("OK")
		mock.ExpectDel(lockKey).SetVal(1)

		w := post(r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, submitCalls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("retry replays the cached response without resubmitting", func(t *testing.T) {
		submitCalls := 0
		svc := &fakeLeaveService{
			submitFn: func(ctx context.Context, eid string, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error) {
				submitCalls++
				return leave.LeaveResponse{}, nil
			},
		}
		r, mock := setup(svc)

		mock.ExpectGet(cacheKey).SetVal(`{"requestNumber":"REQ-000042"}`)

		w := post(r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, submitCalls)
		assert.Contains(t, w.Body.String(), "REQ-000042")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed submission releases the lock without caching", func(t *testing.T) {
		svc := &fakeLeaveService{
			submitFn: func(ctx context.Context, eid string, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, errors.New("create failed")
			},
		}
		r, mock := setup(svc)

		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(lockKey, "locked", 30*time.Second).SetVal(true)
		mock.ExpectDel(lockKey).SetVal(1)

		w := post(r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLeaveHandler_Decide(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		actorID := uuid.NewString()
		leaveID := uuid.NewString()

		svc := &fakeLeaveService{
			decideFn: func(ctx context.Context, requestID, aid string, decision leave.Decision) (leave.LeaveResponse, error) {
				assert.Equal(t, leaveID, requestID)
				assert.Equal(t, actorID, aid)
				assert.Equal(t, leave.DecisionApprove, decision)
				return leave.LeaveResponse{ID: requestID, Status: string(leave.StatusApproved)}, nil
			},
		}

		h := leave.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves/"+leaveID+"/decision", strings.NewReader(`{"decision":"APPROVE"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = []gin.Param{{Key: "id", Value: leaveID}}
		c.Set("employee_id", actorID)

		h.Decide(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got leave.LeaveResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, string(leave.StatusApproved), got.Status)
	})

	t.Run("negative unknown decision value", func(t *testing.T) {
		h := leave.NewHandler(&fakeLeaveService{}, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves/"+uuid.NewString()+"/decision", strings.NewReader(`{"decision":"ESCALATE"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = []gin.Param{{Key: "id", Value: uuid.NewString()}}

		h.Decide(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})

	t.Run("negative wrong approver", func(t *testing.T) {
		svc := &fakeLeaveService{
			decideFn: func(ctx context.Context, requestID, actorID string, decision leave.Decision) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrNotAuthorizedApprover
			},
		}
		h := leave.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves/"+uuid.NewString()+"/decision", strings.NewReader(`{"decision":"APPROVE"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = []gin.Param{{Key: "id", Value: uuid.NewString()}}
		c.Set("employee_id", uuid.NewString())

		h.Decide(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "FORBIDDEN", env.Error.Code)
	})

	t.Run("negative already decided", func(t *testing.T) {
		svc := &fakeLeaveService{
			decideFn: func(ctx context.Context, requestID, actorID string, decision leave.Decision) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrInvalidTransition
			},
		}
		h := leave.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves/"+uuid.NewString()+"/decision", strings.NewReader(`{"decision":"REJECT"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = []gin.Param{{Key: "id", Value: uuid.NewString()}}
		c.Set("employee_id", uuid.NewString())

		h.Decide(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "INVALID_STATE", env.Error.Code)
	})
}

func TestLeaveHandler_Cancel(t *testing.T) {
	t.Run("success forwards password", func(t *testing.T) {
		actorID := uuid.NewString()
		leaveID := uuid.NewString()

		svc := &fakeLeaveService{
			cancelFn: func(ctx context.Context, requestID, aid, password string) (leave.LeaveResponse, error) {
				assert.Equal(t, leaveID, requestID)
				assert.Equal(t, actorID, aid)
				assert.Equal(t, "s3cret", password)
				return leave.LeaveResponse{ID: requestID, Status: string(leave.StatusCancelled)}, nil
			},
		}

		h := leave.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves/"+leaveID+"/cancel", strings.NewReader(`{"password":"s3cret"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = []gin.Param{{Key: "id", Value: leaveID}}
		c.Set("employee_id", actorID)

		h.Cancel(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got leave.LeaveResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, string(leave.StatusCancelled), got.Status)
	})

	t.Run("negative reauthentication failed", func(t *testing.T) {
		svc := &fakeLeaveService{
			cancelFn: func(ctx context.Context, requestID, actorID, password string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrReauthenticationFailed
			},
		}
		h := leave.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/leaves/"+uuid.NewString()+"/cancel", strings.NewReader(`{"password":"wrong"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = []gin.Param{{Key: "id", Value: uuid.NewString()}}
		c.Set("employee_id", uuid.NewString())

		h.Cancel(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	})
}

func TestLeaveHandler_ListPending(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		actorID := uuid.NewString()
		svc := &fakeLeaveService{
			listPendingForFn: func(ctx context.Context, approverID string) ([]leave.LeaveResponse, error) {
				assert.Equal(t, actorID, approverID)
				return []leave.LeaveResponse{
					{ID: uuid.NewString(), Status: string(leave.StatusPending), EmployeeName: "Arif Rahman"},
				}, nil
			},
		}

		h := leave.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/leaves/pending", nil)
		c.Set("employee_id", actorID)

		h.ListPending(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got []leave.LeaveResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Len(t, got, 1)
		assert.Equal(t, "Arif Rahman", got[0].EmployeeName)
	})

	t.Run("negative service error", func(t *testing.T) {
		svc := &fakeLeaveService{
			listPendingForFn: func(ctx context.Context, approverID string) ([]leave.LeaveResponse, error) {
				return nil, errors.New("db error")
			},
		}
		h := leave.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/leaves/pending", nil)
		c.Set("employee_id", uuid.NewString())

		h.ListPending(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	})
}

func TestLeaveHandler_GetById(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		leaveID := uuid.NewString()
		svc := &fakeLeaveService{
			getByIDFn: func(ctx context.Context, id string) (leave.LeaveResponse, error) {
				assert.Equal(t, leaveID, id)
				return leave.LeaveResponse{ID: id, RequestNumber: "REQ-000042"}, nil
			},
		}

		h := leave.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/leaves/"+leaveID, nil)
		c.Params = []gin.Param{{Key: "id", Value: leaveID}}

		h.GetById(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.True(t, env.Ok)
		var got leave.LeaveResponse
		assert.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, leaveID, got.ID)
	})

	t.Run("negative not found", func(t *testing.T) {
		svc := &fakeLeaveService{
			getByIDFn: func(ctx context.Context, id string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrLeaveNotFound
			},
		}
		h := leave.NewHandler(svc, zap.NewNop())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/leaves/"+uuid.NewString(), nil)
		c.Params = []gin.Param{{Key: "id", Value: uuid.NewString()}}

		h.GetById(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})
}
