package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin    = "ADMIN"
	RoleEmployee = "EMPLOYEE"
)

type Employee struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	NIP          string     `gorm:"column:nip;type:varchar(30);not null;uniqueIndex"`
	FullName     string     `gorm:"type:varchar(255);not null"`
	Email        string     `gorm:"uniqueIndex"`
	DepartmentID *uuid.UUID `gorm:"type:uuid;index"`
	Role         string     `gorm:"type:varchar(20);not null;default:'EMPLOYEE'"`

	// AnnualLeaveBalance is mutated only by the ledger inside a
	// workflow transaction; the employee service never writes it.
	AnnualLeaveBalance int `gorm:"not null;default:12"`

	Phone        *string `gorm:"type:varchar(30)"`
	SignatureRef *string `gorm:"type:varchar(255)"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Employee) TableName() string {
	return "employees"
}
