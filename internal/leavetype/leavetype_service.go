package leavetype

import (
	"context"
	"errors"

	"leavedesk/internal/shared/apperror"
	"net/http"

	"gorm.io/gorm"
)

var ErrLeaveTypeNotFound = apperror.New(
	apperror.CodeNotFound,
	"leave type not found",
	http.StatusNotFound,
)

//go:generate mockgen -source=leavetype_service.go -destination=mock/leavetype_service_mock.go -package=mock
type Service interface {
	GetAll(ctx context.Context) ([]LeaveTypeResponse, error)
	GetByID(ctx context.Context, id string) (LeaveTypeResponse, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetAll(ctx context.Context) ([]LeaveTypeResponse, error) {
	types, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]LeaveTypeResponse, len(types))
	for i, lt := range types {
		resp[i] = mapToResponse(lt)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveTypeResponse, error) {
	lt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveTypeResponse{}, ErrLeaveTypeNotFound
		}
		return LeaveTypeResponse{}, err
	}
	return mapToResponse(*lt), nil
}

func mapToResponse(lt LeaveType) LeaveTypeResponse {
	return LeaveTypeResponse{
		ID:               lt.ID.String(),
		Code:             lt.Code,
		Name:             lt.Name,
		AffectsBalance:   lt.AffectsBalance,
		RequiresEvidence: lt.RequiresEvidence,
	}
}
