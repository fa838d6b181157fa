package department

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=department_repo.go -destination=mock/department_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, d *Department) error
	FindAll(ctx context.Context) ([]Department, error)
	FindByID(ctx context.Context, id string) (*Department, error)
	Update(ctx context.Context, d *Department) error
	Delete(ctx context.Context, id string) error
	CountEmployees(ctx context.Context, id string) (int64, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, d *Department) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *repository) FindAll(ctx context.Context) ([]Department, error) {
	var departments []Department
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&departments).Error
	return departments, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Department, error) {
	var d Department
	err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error
	return &d, err
}

func (r *repository) Update(ctx context.Context, d *Department) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Department{}, "id = ?", id).Error
}

func (r *repository) CountEmployees(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("employees").
		Where("department_id = ?", id).
		Where("deleted_at IS NULL").
		Count(&count).Error
	return count, err
}
