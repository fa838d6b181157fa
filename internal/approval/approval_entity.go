package approval

import (
	"time"

	"github.com/google/uuid"
)

// MaxChainLength caps how many approvers a department chain may hold.
const MaxChainLength = 3

// FlowStep is one position in a department's ordered approver chain.
// Position is 0-based; a request visits approvers in ascending order.
type FlowStep struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DepartmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_flow_dept_position,priority:1"`
	Position     int       `gorm:"not null;uniqueIndex:uq_flow_dept_position,priority:2"`
	ApproverID   uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (FlowStep) TableName() string {
	return "approval_flows"
}
