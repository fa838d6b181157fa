package leavetype

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leavetype_repo.go -destination=mock/leavetype_repo_mock.go -package=mock
type Repository interface {
	FindAll(ctx context.Context) ([]LeaveType, error)
	FindByID(ctx context.Context, id string) (*LeaveType, error)
	FindByCode(ctx context.Context, code string) (*LeaveType, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindAll(ctx context.Context) ([]LeaveType, error) {
	var types []LeaveType
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&types).Error
	return types, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveType, error) {
	var lt LeaveType
	err := r.db.WithContext(ctx).First(&lt, "id = ?", id).Error
	return &lt, err
}

func (r *repository) FindByCode(ctx context.Context, code string) (*LeaveType, error) {
	var lt LeaveType
	err := r.db.WithContext(ctx).First(&lt, "code = ?", code).Error
	return &lt, err
}
