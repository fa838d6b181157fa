package events

import "time"

const LeaveLifecycleTopic = "leave.request.lifecycle.v1"

const (
	LeaveSubmittedEventType = "leave_request_submitted"
	LeaveDecidedEventType   = "leave_request_decided"
	LeaveCancelledEventType = "leave_request_cancelled"
)

// LeaveLifecycleEvent is emitted through the outbox on every committed
// transition of a leave request.
type LeaveLifecycleEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	EmployeeID string    `json:"employee_id"`
	LeaveType  string    `json:"leave_type"`
	Status     string    `json:"status"`
	Days       int       `json:"days"`
	OccurredAt time.Time `json:"occurred_at"`
}
