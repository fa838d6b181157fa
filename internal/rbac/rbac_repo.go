package rbac

import "gorm.io/gorm"

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	GetEmployeeRoles() ([]EmployeeRoleRow, error)
	GetRolePermissions() ([]RolePermissionRow, error)
	ListPermissions() ([]PermissionRow, error)
	GetPermissionsByRole(role string) ([]PermissionRow, error)
	UpdateRolePermissions(role string, permIDs []string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

type PermissionRow struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Resource string
	Action   string
	Label    string
	Category string
}

func (PermissionRow) TableName() string {
	return "permissions"
}

type EmployeeRoleRow struct {
	EmployeeID string
	Role       string
}

type RolePermissionRow struct {
	Role     string
	Resource string
	Action   string
}

// GetEmployeeRoles reads role membership straight off the employees
// table; roles are a fixed enum, not managed entities.
func (r *repository) GetEmployeeRoles() ([]EmployeeRoleRow, error) {
	var result []EmployeeRoleRow
	err := r.db.
		Table("employees").
		Select("employees.id AS employee_id, employees.role").
		Where("employees.deleted_at IS NULL").
		Scan(&result).Error
	return result, err
}

func (r *repository) GetRolePermissions() ([]RolePermissionRow, error) {
	var result []RolePermissionRow
	err := r.db.
		Table("role_permissions").
		Select("role_permissions.role, permissions.resource, permissions.action").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Scan(&result).Error
	return result, err
}

func (r *repository) ListPermissions() ([]PermissionRow, error) {
	var result []PermissionRow
	err := r.db.Order("category, label").Find(&result).Error
	return result, err
}

func (r *repository) GetPermissionsByRole(role string) ([]PermissionRow, error) {
	var result []PermissionRow
	err := r.db.
		Table("permissions").
		Select("permissions.*").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role = ?", role).
		Scan(&result).Error
	return result, err
}

func (r *repository) UpdateRolePermissions(role string, permIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permissions WHERE role = ?", role).Error; err != nil {
			return err
		}
		for _, pID := range permIDs {
			if err := tx.Exec(
				"INSERT INTO role_permissions (role, permission_id) VALUES (?, ?)", role, pID,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
