package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	employeeerrors "leavedesk/internal/employee/errors"
	"leavedesk/internal/shared/contextutil"
	"leavedesk/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const employeeOptionsKey = "employees:options"

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context) ([]EmployeeResponse, error)
	GetOptions(ctx context.Context) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
	Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	db      *sql.DB
	repo    Repository
	counter counter.Repository
	rdb     *redis.Client
	sf      *singleflight.Group
	logger  *zap.Logger
}

func NewService(db *sql.DB, repo Repository, counter counter.Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:      db,
		repo:    repo,
		counter: counter,
		rdb:     rdb,
		sf:      &singleflight.Group{},
		logger:  l,
	}
}

func (s *service) Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("email", req.Email),
		zap.String("department_id", req.DepartmentID),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	if req.NIP == "" {
		nextVal, err := s.counter.GetNextValue(ctx, "employee_nip")
		if err != nil {
			s.logger.Error("create employee generate nip failed", zap.Error(err))
			return EmployeeResponse{}, err
		}
		req.NIP = fmt.Sprintf("EMP-%06d", nextVal)
	}

	role := req.Role
	if role == "" {
		role = RoleEmployee
	}

	balance := 12
	if req.Balance != nil {
		balance = *req.Balance
	}

	empl := &Employee{
		ID:                 uuid.New(),
		NIP:                req.NIP,
		FullName:           req.FullName,
		Email:              req.Email,
		DepartmentID:       &departmentID,
		Role:               role,
		AnnualLeaveBalance: balance,
		Phone:              req.Phone,
		SignatureRef:       req.SignatureRef,
	}

	if err := qtx.Create(ctx, empl); err != nil {
		s.logger.Error("create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create employee commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidateOptionsCache(ctx)
	s.logger.Info("create employee success",
		zap.String("employee_id", empl.ID.String()),
		zap.String("nip", empl.NIP),
	)

	return mapToResponse(*empl), nil
}

func (s *service) GetAll(ctx context.Context) ([]EmployeeResponse, error) {
	employees, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(employees), nil
}

// GetOptions serves the dropdown-friendly employee list through a redis
// cache; singleflight collapses concurrent cache misses into one query.
func (s *service) GetOptions(ctx context.Context) ([]EmployeeResponse, error) {
	if s.rdb != nil {
		if val, err := s.rdb.Get(ctx, employeeOptionsKey).Result(); err == nil {
			var cached []EmployeeResponse
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached, nil
			}
		}
	}

	result, err, _ := s.sf.Do(employeeOptionsKey, func() (any, error) {
		employees, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		resp := mapToListResponse(employees)

		if s.rdb != nil {
			if payload, err := json.Marshal(resp); err == nil {
				_ = s.rdb.Set(ctx, employeeOptionsKey, payload, 10*time.Minute).Err()
			}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]EmployeeResponse), nil
}

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return EmployeeResponse{}, err
	}
	return mapToResponse(*e), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
		}
		return EmployeeResponse{}, err
	}

	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	e.FullName = req.FullName
	e.Email = req.Email
	e.DepartmentID = &departmentID
	e.Role = req.Role
	e.Phone = req.Phone
	e.SignatureRef = req.SignatureRef

	if err := qtx.Update(ctx, e); err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		return EmployeeResponse{}, err
	}

	s.invalidateOptionsCache(ctx)
	return mapToResponse(*e), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Delete(ctx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.invalidateOptionsCache(ctx)
	return nil
}

func (s *service) invalidateOptionsCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, employeeOptionsKey).Err(); err != nil {
		s.logger.Warn("invalidate employee options cache failed", zap.Error(err))
	}
}

func mapToResponse(e Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:                 e.ID.String(),
		NIP:                e.NIP,
		FullName:           e.FullName,
		Email:              e.Email,
		Role:               e.Role,
		AnnualLeaveBalance: e.AnnualLeaveBalance,
		Phone:              e.Phone,
		SignatureRef:       e.SignatureRef,
	}
	if e.DepartmentID != nil {
		v := e.DepartmentID.String()
		resp.DepartmentID = &v
	}
	return resp
}

func mapToListResponse(employees []Employee) []EmployeeResponse {
	resp := make([]EmployeeResponse, len(employees))
	for i, e := range employees {
		resp[i] = mapToResponse(e)
	}
	return resp
}
