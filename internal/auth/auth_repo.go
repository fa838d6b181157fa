package auth

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=auth_repo.go -destination=mock/auth_repo_mock.go -package=mock

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByEmployeeID(ctx context.Context, employeeID uuid.UUID) (*User, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repository) GetByEmployeeID(ctx context.Context, employeeID uuid.UUID) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND is_active = true", employeeID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
