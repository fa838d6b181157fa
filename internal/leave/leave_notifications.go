package leave

import (
	"fmt"

	"leavedesk/internal/notification"

	"github.com/google/uuid"
)

// DispatchContext carries everything the dispatcher needs to compose
// messages. All lookups happen before dispatch; the dispatcher itself
// does no I/O.
type DispatchContext struct {
	Request       *LeaveRequest
	RequesterName string
	LeaveTypeName string
	// NextApproverID is set when the request was forwarded to another
	// approver in the same transition.
	NextApproverID *uuid.UUID
	// AdminIDs receive document warnings alongside the requester.
	AdminIDs []uuid.UUID
	// MissingDocument is true when the leave type requires evidence and
	// the submission carried no attachment.
	MissingDocument bool
}

// DecideSubmissionNotifications returns the drafts due when a request
// enters the system. Only evidence-required submissions without an
// attachment produce anything: a warning to the requester and to every
// administrator.
func DecideSubmissionNotifications(dc DispatchContext) []notification.Draft {
	if !dc.MissingDocument {
		return nil
	}

	requestID := dc.Request.ID
	message := fmt.Sprintf(
		"Leave request %s (%s) was submitted without the required supporting document",
		dc.Request.RequestNumber, dc.LeaveTypeName,
	)

	drafts := []notification.Draft{{
		RecipientID:    dc.Request.EmployeeID,
		Category:       notification.CategoryWarning,
		Title:          "Supporting document required",
		Message:        message,
		LeaveRequestID: &requestID,
	}}
	for _, adminID := range dc.AdminIDs {
		drafts = append(drafts, notification.Draft{
			RecipientID:    adminID,
			Category:       notification.CategoryWarning,
			Title:          "Supporting document required",
			Message:        fmt.Sprintf("%s: %s", dc.RequesterName, message),
			LeaveRequestID: &requestID,
		})
	}
	return drafts
}

// DecideDecisionNotifications returns the drafts due after an approver's
// verdict: info to the next approver on forwarding, success to the
// requester on final approval, warning to the requester on rejection.
// Suspension emits nothing.
func DecideDecisionNotifications(dc DispatchContext, decision Decision) []notification.Draft {
	requestID := dc.Request.ID

	switch decision {
	case DecisionApprove:
		if dc.NextApproverID != nil {
			return []notification.Draft{{
				RecipientID: *dc.NextApproverID,
				Category:    notification.CategoryInfo,
				Title:       "Leave request awaiting your approval",
				Message: fmt.Sprintf(
					"Leave request %s from %s (%s, %d days) needs your decision",
					dc.Request.RequestNumber, dc.RequesterName, dc.LeaveTypeName, dc.Request.Days,
				),
				LeaveRequestID: &requestID,
			}}
		}
		return []notification.Draft{{
			RecipientID: dc.Request.EmployeeID,
			Category:    notification.CategorySuccess,
			Title:       "Leave request approved",
			Message: fmt.Sprintf(
				"Your leave request %s (%s, %d days) has been fully approved",
				dc.Request.RequestNumber, dc.LeaveTypeName, dc.Request.Days,
			),
			LeaveRequestID: &requestID,
		}}
	case DecisionReject:
		return []notification.Draft{{
			RecipientID: dc.Request.EmployeeID,
			Category:    notification.CategoryWarning,
			Title:       "Leave request rejected",
			Message: fmt.Sprintf(
				"Your leave request %s (%s) has been rejected",
				dc.Request.RequestNumber, dc.LeaveTypeName,
			),
			LeaveRequestID: &requestID,
		}}
	}
	return nil
}
