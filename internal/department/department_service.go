package department

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"leavedesk/internal/shared/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrDepartmentNotFound = apperror.New(
	apperror.CodeNotFound,
	"department not found",
	http.StatusNotFound,
)

//go:generate mockgen -source=department_service.go -destination=mock/department_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateDepartmentRequest) (DepartmentResponse, error)
	GetAll(ctx context.Context) ([]DepartmentResponse, error)
	GetByID(ctx context.Context, id string) (DepartmentResponse, error)
	Update(ctx context.Context, id string, req UpdateDepartmentRequest) (DepartmentResponse, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	db   *sql.DB
	repo Repository
}

func NewService(db *sql.DB, repo Repository) Service {
	return &service{db: db, repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateDepartmentRequest) (DepartmentResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DepartmentResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	dept := &Department{
		ID:   uuid.New(),
		Name: req.Name,
	}

	if err := qtx.Create(ctx, dept); err != nil {
		return DepartmentResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return DepartmentResponse{}, err
	}

	return DepartmentResponse{ID: dept.ID.String(), Name: dept.Name}, nil
}

func (s *service) GetAll(ctx context.Context) ([]DepartmentResponse, error) {
	departments, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]DepartmentResponse, len(departments))
	for i, d := range departments {
		count, err := s.repo.CountEmployees(ctx, d.ID.String())
		if err != nil {
			return nil, err
		}
		resp[i] = DepartmentResponse{
			ID:            d.ID.String(),
			Name:          d.Name,
			EmployeeCount: count,
		}
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, id string) (DepartmentResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DepartmentResponse{}, ErrDepartmentNotFound
		}
		return DepartmentResponse{}, err
	}

	count, err := s.repo.CountEmployees(ctx, id)
	if err != nil {
		return DepartmentResponse{}, err
	}

	return DepartmentResponse{
		ID:            d.ID.String(),
		Name:          d.Name,
		EmployeeCount: count,
	}, nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateDepartmentRequest) (DepartmentResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DepartmentResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	d, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DepartmentResponse{}, ErrDepartmentNotFound
		}
		return DepartmentResponse{}, err
	}

	d.Name = req.Name
	if err := qtx.Update(ctx, d); err != nil {
		return DepartmentResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return DepartmentResponse{}, err
	}

	return DepartmentResponse{ID: d.ID.String(), Name: d.Name}, nil
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
	return tx.Commit()
}
