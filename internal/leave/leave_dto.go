package leave

import "time"

type SubmitLeaveRequest struct {
	LeaveTypeID   string  `json:"leaveTypeId" binding:"required,uuid"`
	StartDate     string  `json:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate       string  `json:"endDate" binding:"required,datetime=2006-01-02"`
	Days          int     `json:"days" binding:"omitempty,min=1"`
	Reason        string  `json:"reason" binding:"required,max=500"`
	AttachmentRef *string `json:"attachmentRef" binding:"omitempty,max=255"`
}

type DecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVE REJECT SUSPEND"`
}

type CancelRequest struct {
	// Password re-confirmation, required when cancelling a request that
	// has already been approved or suspended.
	Password string `json:"password" binding:"omitempty,max=128"`
}

type LeaveResponse struct {
	ID             string    `json:"id"`
	RequestNumber  string    `json:"requestNumber"`
	EmployeeID     string    `json:"employeeId"`
	EmployeeName   string    `json:"employeeName,omitempty"`
	LeaveTypeID    string    `json:"leaveTypeId"`
	LeaveTypeName  string    `json:"leaveTypeName,omitempty"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	Days           int       `json:"days"`
	Reason         string    `json:"reason"`
	Status         string    `json:"status"`
	NextApproverID *string   `json:"nextApproverId"`
	AttachmentRef  *string   `json:"attachmentRef"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toLeaveResponse(lr *LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:            lr.ID.String(),
		RequestNumber: lr.RequestNumber,
		EmployeeID:    lr.EmployeeID.String(),
		LeaveTypeID:   lr.LeaveTypeID.String(),
		StartDate:     lr.StartDate,
		EndDate:       lr.EndDate,
		Days:          lr.Days,
		Reason:        lr.Reason,
		Status:        string(lr.Status),
		AttachmentRef: lr.AttachmentRef,
		CreatedAt:     lr.CreatedAt,
	}
	if lr.NextApproverID != nil {
		id := lr.NextApproverID.String()
		resp.NextApproverID = &id
	}
	return resp
}
