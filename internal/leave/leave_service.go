package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"leavedesk/internal/approval"
	"leavedesk/internal/auditlog"
	"leavedesk/internal/employee"
	leaveerrors "leavedesk/internal/leave/errors"
	"leavedesk/internal/events"
	"leavedesk/internal/leavetype"
	"leavedesk/internal/ledger"
	ledgererrors "leavedesk/internal/ledger/errors"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/notification"
	"leavedesk/internal/shared/apperror"
	"leavedesk/internal/shared/contextutil"
	"leavedesk/internal/shared/counter"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const requestNumberCounter = "leave_request"

// Reauthenticator re-checks a credential before a reversal of a
// committed request. Implemented by the auth service.
type Reauthenticator interface {
	VerifyPassword(ctx context.Context, employeeID, password string) error
}

// Service is the leave request state machine. Every transition runs in
// one database transaction: the status write, any ledger mutation, the
// audit entry, the notification rows and their outbox events commit
// together or not at all. The request row is locked for the duration of
// a transition, so concurrent decisions on the same request serialize
// and the loser fails validation against the already-updated status.
//
//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, employeeID string, req SubmitLeaveRequest) (LeaveResponse, error)
	Decide(ctx context.Context, requestID, actorID string, decision Decision) (LeaveResponse, error)
	Cancel(ctx context.Context, requestID, actorID, password string) (LeaveResponse, error)
	ListPendingFor(ctx context.Context, approverID string) ([]LeaveResponse, error)
	GetHistoryFor(ctx context.Context, employeeID string) ([]LeaveResponse, error)
	GetByID(ctx context.Context, id string) (LeaveResponse, error)
}

type service struct {
	db            *sql.DB
	repo          Repository
	ledger        ledger.Ledger
	approvals     approval.Service
	employees     employee.Repository
	leaveTypes    leavetype.Repository
	auditLogs     auditlog.Repository
	notifications notification.Repository
	outbox        kafka.OutboxRepository
	counter       counter.Repository
	reauth        Reauthenticator
	logger        *zap.Logger
}

type ServiceDeps struct {
	DB            *sql.DB
	Repo          Repository
	Ledger        ledger.Ledger
	Approvals     approval.Service
	Employees     employee.Repository
	LeaveTypes    leavetype.Repository
	AuditLogs     auditlog.Repository
	Notifications notification.Repository
	Outbox        kafka.OutboxRepository
	Counter       counter.Repository
	Reauth        Reauthenticator
}

func NewService(deps ServiceDeps, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:            deps.DB,
		repo:          deps.Repo,
		ledger:        deps.Ledger,
		approvals:     deps.Approvals,
		employees:     deps.Employees,
		leaveTypes:    deps.LeaveTypes,
		auditLogs:     deps.AuditLogs,
		notifications: deps.Notifications,
		outbox:        deps.Outbox,
		counter:       deps.Counter,
		reauth:        deps.Reauth,
		logger:        l,
	}
}

func (s *service) Submit(ctx context.Context, employeeID string, req SubmitLeaveRequest) (LeaveResponse, error) {
	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}

	days := req.Days
	if days == 0 {
		days = int(endDate.Sub(startDate).Hours()/24) + 1
	}
	if days <= 0 {
		return LeaveResponse{}, leaveerrors.ErrInvalidDays
	}

	requester, err := s.findEmployee(ctx, employeeID)
	if err != nil {
		return LeaveResponse{}, err
	}
	if requester.DepartmentID == nil {
		return LeaveResponse{}, apperror.New(
			apperror.CodeInvalidState,
			"employee is not assigned to a department",
			http.StatusUnprocessableEntity,
		)
	}

	lt, err := s.findLeaveType(ctx, req.LeaveTypeID)
	if err != nil {
		return LeaveResponse{}, err
	}

	// Pre-flight balance check. The authoritative check happens again
	// under a row lock when the final approval debits.
	if lt.AffectsBalance {
		balance, err := s.ledger.Balance(ctx, employeeID)
		if err != nil {
			return LeaveResponse{}, err
		}
		if days > balance {
			return LeaveResponse{}, s.insufficientBalance(employeeID, days, balance)
		}
	}

	firstApprover, err := s.approvals.FirstApprover(ctx, requester.DepartmentID.String())
	if err != nil {
		return LeaveResponse{}, err
	}

	seq, err := s.counter.GetNextValue(ctx, requestNumberCounter)
	if err != nil {
		return LeaveResponse{}, apperror.Storage(err)
	}

	lr := &LeaveRequest{
		ID:             uuid.New(),
		RequestNumber:  fmt.Sprintf("REQ-%06d", seq),
		EmployeeID:     requester.ID,
		LeaveTypeID:    lt.ID,
		StartDate:      startDate,
		EndDate:        endDate,
		Days:           days,
		Reason:         req.Reason,
		Status:         StatusPending,
		NextApproverID: &firstApprover,
		AttachmentRef:  req.AttachmentRef,
		CreatedAt:      time.Now(),
	}

	dc := DispatchContext{
		Request:         lr,
		RequesterName:   requester.FullName,
		LeaveTypeName:   lt.Name,
		MissingDocument: lt.RequiresEvidence && req.AttachmentRef == nil,
	}
	if dc.MissingDocument {
		admins, err := s.employees.FindAdmins(ctx)
		if err != nil {
			return LeaveResponse{}, apperror.Storage(err)
		}
		for _, a := range admins {
			dc.AdminIDs = append(dc.AdminIDs, a.ID)
		}
	}
	drafts := DecideSubmissionNotifications(dc)

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Create(ctx, lr); err != nil {
			return apperror.Storage(err)
		}
		if err := s.appendAudit(ctx, tx, requester.FullName,
			fmt.Sprintf("submitted leave request %s (%s, %d days)", lr.RequestNumber, lt.Name, days)); err != nil {
			return err
		}
		if err := s.persistDrafts(ctx, tx, lr, drafts); err != nil {
			return err
		}
		return s.queueLifecycleEvent(ctx, tx, lr, lt.Code, events.LeaveSubmittedEventType)
	})
	if err != nil {
		return LeaveResponse{}, err
	}

	s.logger.Info("leave request submitted",
		zap.String("request_number", lr.RequestNumber),
		zap.String("employee_id", employeeID),
		zap.String("leave_type", lt.Code),
		zap.Int("days", days),
	)

	return toLeaveResponse(lr), nil
}

func (s *service) Decide(ctx context.Context, requestID, actorID string, decision Decision) (LeaveResponse, error) {
	switch decision {
	case DecisionApprove, DecisionReject, DecisionSuspend:
	default:
		return LeaveResponse{}, leaveerrors.ErrUnknownDecision
	}

	actor, err := s.findEmployee(ctx, actorID)
	if err != nil {
		return LeaveResponse{}, err
	}

	var lr *LeaveRequest
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		qtx := s.repo.WithTx(tx)

		lr, err = qtx.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if lr.Status != StatusPending {
			return leaveerrors.ErrInvalidTransition
		}
		if lr.NextApproverID == nil {
			return leaveerrors.ErrPendingWithoutApprover
		}
		if *lr.NextApproverID != actor.ID {
			return leaveerrors.ErrNotAuthorizedApprover
		}

		requester, err := s.findEmployee(ctx, lr.EmployeeID.String())
		if err != nil {
			return err
		}
		lt, err := s.findLeaveType(ctx, lr.LeaveTypeID.String())
		if err != nil {
			return err
		}

		dc := DispatchContext{
			Request:       lr,
			RequesterName: requester.FullName,
			LeaveTypeName: lt.Name,
		}
		var activity string

		switch decision {
		case DecisionApprove:
			if requester.DepartmentID == nil {
				return leaveerrors.ErrPendingWithoutApprover
			}
			next, ok, err := s.approvals.NextApprover(ctx, requester.DepartmentID.String(), actor.ID)
			if err != nil {
				return err
			}
			if ok {
				lr.NextApproverID = &next
				dc.NextApproverID = &next
				activity = fmt.Sprintf("approved and forwarded leave request %s", lr.RequestNumber)
			} else {
				// Final approval. The debit comes first so a refused
				// debit never leaves an "approved" audit trail behind.
				if lt.AffectsBalance {
					if err := s.ledger.WithTx(tx).Debit(ctx, lr.EmployeeID.String(), lr.Days); err != nil {
						return err
					}
					lr.WasDebited = true
				}
				lr.Status = StatusApproved
				lr.NextApproverID = nil
				activity = fmt.Sprintf("gave final approval to leave request %s", lr.RequestNumber)
			}
		case DecisionReject:
			lr.Status = StatusRejected
			lr.NextApproverID = nil
			activity = fmt.Sprintf("rejected leave request %s", lr.RequestNumber)
		case DecisionSuspend:
			lr.Status = StatusSuspended
			lr.NextApproverID = nil
			activity = fmt.Sprintf("suspended leave request %s", lr.RequestNumber)
		}

		if err := qtx.UpdateStatus(ctx, lr); err != nil {
			return apperror.Storage(err)
		}
		if err := s.appendAudit(ctx, tx, actor.FullName, activity); err != nil {
			return err
		}
		if err := s.persistDrafts(ctx, tx, lr, DecideDecisionNotifications(dc, decision)); err != nil {
			return err
		}
		return s.queueLifecycleEvent(ctx, tx, lr, lt.Code, events.LeaveDecidedEventType)
	})
	if err != nil {
		return LeaveResponse{}, err
	}

	s.logger.Info("leave request decided",
		zap.String("request_number", lr.RequestNumber),
		zap.String("decision", string(decision)),
		zap.String("status", string(lr.Status)),
		zap.String("actor_id", actorID),
	)

	return toLeaveResponse(lr), nil
}

func (s *service) Cancel(ctx context.Context, requestID, actorID, password string) (LeaveResponse, error) {
	actor, err := s.findEmployee(ctx, actorID)
	if err != nil {
		return LeaveResponse{}, err
	}

	var lr *LeaveRequest
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		qtx := s.repo.WithTx(tx)

		lr, err = qtx.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		switch lr.Status {
		case StatusPending, StatusApproved, StatusSuspended:
		default:
			return leaveerrors.ErrInvalidTransition
		}

		if actor.ID != lr.EmployeeID && actor.Role != employee.RoleAdmin {
			return leaveerrors.ErrCancellationForbidden
		}

		// Reversing a committed request needs the credential re-entered;
		// a pending cancellation only needs normal authorization.
		if lr.Status == StatusApproved || lr.Status == StatusSuspended {
			if err := s.reauth.VerifyPassword(ctx, actorID, password); err != nil {
				return leaveerrors.ErrReauthenticationFailed
			}
		}

		lt, err := s.findLeaveType(ctx, lr.LeaveTypeID.String())
		if err != nil {
			return err
		}

		if lr.WasDebited {
			if err := s.ledger.WithTx(tx).Credit(ctx, lr.EmployeeID.String(), lr.Days); err != nil {
				return err
			}
			lr.WasDebited = false
		}

		lr.Status = StatusCancelled
		lr.NextApproverID = nil

		if err := qtx.UpdateStatus(ctx, lr); err != nil {
			return apperror.Storage(err)
		}
		if err := s.appendAudit(ctx, tx, actor.FullName,
			fmt.Sprintf("cancelled leave request %s", lr.RequestNumber)); err != nil {
			return err
		}
		return s.queueLifecycleEvent(ctx, tx, lr, lt.Code, events.LeaveCancelledEventType)
	})
	if err != nil {
		return LeaveResponse{}, err
	}

	s.logger.Info("leave request cancelled",
		zap.String("request_number", lr.RequestNumber),
		zap.String("actor_id", actorID),
	)

	return toLeaveResponse(lr), nil
}

func (s *service) ListPendingFor(ctx context.Context, approverID string) ([]LeaveResponse, error) {
	requests, err := s.repo.ListPendingForApprover(ctx, approverID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return s.enrich(ctx, requests)
}

func (s *service) GetHistoryFor(ctx context.Context, employeeID string) ([]LeaveResponse, error) {
	requests, err := s.repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	return s.enrich(ctx, requests)
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveResponse, error) {
	lr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return LeaveResponse{}, err
	}

	resp := toLeaveResponse(lr)
	if requester, err := s.findEmployee(ctx, lr.EmployeeID.String()); err == nil {
		resp.EmployeeName = requester.FullName
	}
	if lt, err := s.findLeaveType(ctx, lr.LeaveTypeID.String()); err == nil {
		resp.LeaveTypeName = lt.Name
	}
	return resp, nil
}

func (s *service) enrich(ctx context.Context, requests []LeaveRequest) ([]LeaveResponse, error) {
	names := make(map[uuid.UUID]string)
	typeNames := make(map[uuid.UUID]string)

	resp := make([]LeaveResponse, len(requests))
	for i := range requests {
		lr := &requests[i]
		resp[i] = toLeaveResponse(lr)

		if _, ok := names[lr.EmployeeID]; !ok {
			if e, err := s.findEmployee(ctx, lr.EmployeeID.String()); err == nil {
				names[lr.EmployeeID] = e.FullName
			}
		}
		if _, ok := typeNames[lr.LeaveTypeID]; !ok {
			if lt, err := s.findLeaveType(ctx, lr.LeaveTypeID.String()); err == nil {
				typeNames[lr.LeaveTypeID] = lt.Name
			}
		}
		resp[i].EmployeeName = names[lr.EmployeeID]
		resp[i].LeaveTypeName = typeNames[lr.LeaveTypeID]
	}
	return resp, nil
}

func (s *service) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperror.Storage(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (s *service) appendAudit(ctx context.Context, tx *sql.Tx, actorName, activity string) error {
	if err := s.auditLogs.WithTx(tx).Append(ctx, auditlog.NewEntry(actorName, activity)); err != nil {
		return apperror.Storage(err)
	}
	return nil
}

// persistDrafts writes the notification rows and queues one delivery
// event per row on the outbox, all on the transition's transaction.
func (s *service) persistDrafts(ctx context.Context, tx *sql.Tx, lr *LeaveRequest, drafts []notification.Draft) error {
	if len(drafts) == 0 {
		return nil
	}

	qtx := s.notifications.WithTx(tx)
	otx := s.outbox.WithTx(tx)
	traceID := contextutil.GetRequestID(ctx)

	for _, d := range drafts {
		n := notification.FromDraft(d)
		if err := qtx.Create(ctx, n); err != nil {
			return apperror.Storage(err)
		}

		payload, err := json.Marshal(events.NotificationQueuedEvent{
			EventType:      events.NotificationQueuedEventType,
			NotificationID: n.ID.String(),
			RecipientID:    n.RecipientID.String(),
			Category:       n.Category,
			Message:        n.Message,
			LeaveRequestID: lr.ID.String(),
			OccurredAt:     n.CreatedAt,
		})
		if err != nil {
			return err
		}

		if err := otx.Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			TraceID:       traceID,
			AggregateType: "notification",
			AggregateID:   n.ID.String(),
			EventType:     events.NotificationQueuedEventType,
			Topic:         events.NotificationQueuedTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			return apperror.Storage(err)
		}
	}
	return nil
}

func (s *service) queueLifecycleEvent(ctx context.Context, tx *sql.Tx, lr *LeaveRequest, leaveTypeCode, eventType string) error {
	payload, err := json.Marshal(events.LeaveLifecycleEvent{
		EventType:  eventType,
		RequestID:  lr.ID.String(),
		TraceID:    contextutil.GetRequestID(ctx),
		EmployeeID: lr.EmployeeID.String(),
		LeaveType:  leaveTypeCode,
		Status:     string(lr.Status),
		Days:       lr.Days,
		OccurredAt: time.Now(),
	})
	if err != nil {
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		TraceID:       contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   lr.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		return apperror.Storage(err)
	}
	return nil
}

func (s *service) findEmployee(ctx context.Context, id string) (*employee.Employee, error) {
	e, err := s.employees.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.CodeNotFound, "employee not found", http.StatusNotFound)
		}
		return nil, apperror.Storage(err)
	}
	return e, nil
}

func (s *service) findLeaveType(ctx context.Context, id string) (*leavetype.LeaveType, error) {
	lt, err := s.leaveTypes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.CodeNotFound, "leave type not found", http.StatusNotFound)
		}
		return nil, apperror.Storage(err)
	}
	return lt, nil
}

func (s *service) insufficientBalance(employeeID string, days, balance int) error {
	s.logger.Warn("submission refused on balance pre-check",
		zap.String("employee_id", employeeID),
		zap.Int("days", days),
		zap.Int("balance", balance),
	)
	return ledgererrors.ErrInsufficientBalance
}

func parseDateRange(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateRange
	}
	endDate, err := time.Parse("2006-01-02", end)
	if err != nil {
		return time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateRange
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateRange
	}
	return startDate, endDate, nil
}
