package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a login credential bound to one employee.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Password   string    `gorm:"type:varchar(255);not null"`
	IsActive   bool      `gorm:"default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
