package leavetype

import (
	"time"

	"github.com/google/uuid"
)

// LeaveType is a leave category. Two flags drive workflow behavior:
// AffectsBalance marks categories whose final approval debits the
// employee's annual allowance, RequiresEvidence marks categories that
// need a supporting document (e.g. a medical certificate).
type LeaveType struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code             string    `gorm:"type:varchar(30);not null;uniqueIndex"`
	Name             string    `gorm:"type:varchar(100);not null"`
	AffectsBalance   bool      `gorm:"not null;default:false"`
	RequiresEvidence bool      `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (LeaveType) TableName() string {
	return "leave_types"
}
