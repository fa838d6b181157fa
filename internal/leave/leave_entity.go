package leave

import (
	"time"

	"github.com/google/uuid"
)

// Status is the closed set of leave request states. Every behavioral
// branch on status switches over these constants; there are no free-form
// status strings anywhere in the workflow.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusSuspended Status = "SUSPENDED"
	StatusCancelled Status = "CANCELLED"
)

// Decision is an approver's verdict on a pending request.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
	DecisionSuspend Decision = "SUSPEND"
)

// LeaveRequest is the central aggregate of the workflow. It is only
// ever mutated through the service's transition methods, each of which
// runs in a single database transaction.
//
// NextApproverID is set while the request is pending and cleared on
// every terminal transition. WasDebited records that the ledger debit
// for this request has happened; the cancellation path credits back if
// and only if this flag is set, never by inferring from status.
type LeaveRequest struct {
	ID             uuid.UUID
	RequestNumber  string
	EmployeeID     uuid.UUID
	LeaveTypeID    uuid.UUID
	StartDate      time.Time
	EndDate        time.Time
	Days           int
	Reason         string
	Status         Status
	NextApproverID *uuid.UUID
	WasDebited     bool
	AttachmentRef  *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
