package approval

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=approval_repo.go -destination=mock/approval_repo_mock.go -package=mock
type Repository interface {
	FindChain(ctx context.Context, departmentID string) ([]FlowStep, error)
	ApproverExists(ctx context.Context, approverID string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindChain(ctx context.Context, departmentID string) ([]FlowStep, error) {
	var steps []FlowStep
	err := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Order("position ASC").
		Find(&steps).Error
	return steps, err
}

func (r *repository) ApproverExists(ctx context.Context, approverID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("employees").
		Where("id = ?", approverID).
		Where("deleted_at IS NULL").
		Count(&count).Error
	return count > 0, err
}
