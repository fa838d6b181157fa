package leave_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"leavedesk/internal/auditlog"
	"leavedesk/internal/employee"
	"leavedesk/internal/leave"
	leaveerrors "leavedesk/internal/leave/errors"
	"leavedesk/internal/leavetype"
	"leavedesk/internal/ledger"
	ledgererrors "leavedesk/internal/ledger/errors"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/notification"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeLeaveRepository struct {
	createFn            func(ctx context.Context, lr *leave.LeaveRequest) error
	findByIDFn          func(ctx context.Context, id string) (*leave.LeaveRequest, error)
	findByIDForUpdateFn func(ctx context.Context, id string) (*leave.LeaveRequest, error)
	updateStatusFn      func(ctx context.Context, lr *leave.LeaveRequest) error
	listPendingFn       func(ctx context.Context, approverID string) ([]leave.LeaveRequest, error)
	listByEmployeeFn    func(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error)
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository { return f }

func (f *fakeLeaveRepository) Create(ctx context.Context, lr *leave.LeaveRequest) error {
	if f.createFn != nil {
		return f.createFn(ctx, lr)
	}
	return nil
}

func (f *fakeLeaveRepository) FindByID(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, leaveerrors.ErrLeaveNotFound
}

func (f *fakeLeaveRepository) FindByIDForUpdate(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	if f.findByIDForUpdateFn != nil {
		return f.findByIDForUpdateFn(ctx, id)
	}
	return nil, leaveerrors.ErrLeaveNotFound
}

func (f *fakeLeaveRepository) UpdateStatus(ctx context.Context, lr *leave.LeaveRequest) error {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, lr)
	}
	return nil
}

func (f *fakeLeaveRepository) ListPendingForApprover(ctx context.Context, approverID string) ([]leave.LeaveRequest, error) {
	if f.listPendingFn != nil {
		return f.listPendingFn(ctx, approverID)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) ListByEmployee(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	if f.listByEmployeeFn != nil {
		return f.listByEmployeeFn(ctx, employeeID)
	}
	return nil, nil
}

type fakeLedger struct {
	balances map[string]int
	debits   int
	credits  int
	debitErr error
}

func (f *fakeLedger) WithTx(tx *sql.Tx) ledger.Ledger { return f }

func (f *fakeLedger) Balance(ctx context.Context, employeeID string) (int, error) {
	return f.balances[employeeID], nil
}

func (f *fakeLedger) Debit(ctx context.Context, employeeID string, days int) error {
	if f.debitErr != nil {
		return f.debitErr
	}
	if days > f.balances[employeeID] {
		return ledgererrors.ErrInsufficientBalance
	}
	f.balances[employeeID] -= days
	f.debits++
	return nil
}

func (f *fakeLedger) Credit(ctx context.Context, employeeID string, days int) error {
	f.balances[employeeID] += days
	f.credits++
	return nil
}

type fakeApprovalService struct {
	chain map[string][]uuid.UUID
	err   error
}

func (f *fakeApprovalService) ChainFor(ctx context.Context, departmentID string) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chain[departmentID], nil
}

func (f *fakeApprovalService) FirstApprover(ctx context.Context, departmentID string) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	chain := f.chain[departmentID]
	if len(chain) == 0 {
		return uuid.Nil, errors.New("no approval chain configured")
	}
	return chain[0], nil
}

func (f *fakeApprovalService) NextApprover(ctx context.Context, departmentID string, currentApproverID uuid.UUID) (uuid.UUID, bool, error) {
	if f.err != nil {
		return uuid.Nil, false, f.err
	}
	chain := f.chain[departmentID]
	for i, id := range chain {
		if id == currentApproverID && i+1 < len(chain) {
			return chain[i+1], true, nil
		}
	}
	return uuid.Nil, false, nil
}

type fakeEmployeeRepository struct {
	employees map[string]*employee.Employee
	admins    []employee.Employee
}

func (f *fakeEmployeeRepository) WithTx(tx *sql.Tx) employee.Repository          { return f }
func (f *fakeEmployeeRepository) Create(ctx context.Context, e *employee.Employee) error { return nil }
func (f *fakeEmployeeRepository) FindAll(ctx context.Context) ([]employee.Employee, error) {
	return nil, nil
}
func (f *fakeEmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	if e, ok := f.employees[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeEmployeeRepository) FindByNIP(ctx context.Context, nip string) (*employee.Employee, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeEmployeeRepository) FindAdmins(ctx context.Context) ([]employee.Employee, error) {
	return f.admins, nil
}
func (f *fakeEmployeeRepository) Update(ctx context.Context, e *employee.Employee) error { return nil }
func (f *fakeEmployeeRepository) Delete(ctx context.Context, id string) error            { return nil }

type fakeLeaveTypeRepository struct {
	types map[string]*leavetype.LeaveType
}

func (f *fakeLeaveTypeRepository) FindAll(ctx context.Context) ([]leavetype.LeaveType, error) {
	return nil, nil
}
func (f *fakeLeaveTypeRepository) FindByID(ctx context.Context, id string) (*leavetype.LeaveType, error) {
	if lt, ok := f.types[id]; ok {
		return lt, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeLeaveTypeRepository) FindByCode(ctx context.Context, code string) (*leavetype.LeaveType, error) {
	return nil, gorm.ErrRecordNotFound
}

type fakeAuditRepository struct {
	entries []auditlog.Entry
}

func (f *fakeAuditRepository) WithTx(tx *sql.Tx) auditlog.Repository { return f }
func (f *fakeAuditRepository) Append(ctx context.Context, e auditlog.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}
func (f *fakeAuditRepository) ListRecent(ctx context.Context, limit, offset int) ([]auditlog.Entry, error) {
	return f.entries, nil
}
func (f *fakeAuditRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(f.entries)), nil
}

type fakeNotificationRepository struct {
	created []notification.Notification
}

func (f *fakeNotificationRepository) WithTx(tx *sql.Tx) notification.Repository { return f }
func (f *fakeNotificationRepository) Create(ctx context.Context, n notification.Notification) error {
	f.created = append(f.created, n)
	return nil
}
func (f *fakeNotificationRepository) ListForRecipient(ctx context.Context, recipientID string, limit, offset int) ([]notification.Notification, error) {
	return nil, nil
}
func (f *fakeNotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return 0, nil
}
func (f *fakeNotificationRepository) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	return true, nil
}
func (f *fakeNotificationRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	return nil
}
func (f *fakeNotificationRepository) MarkDelivered(ctx context.Context, id string) error { return nil }

type fakeOutboxRepository struct {
	created []kafka.OutboxEvent
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}
func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error                 { return nil }
func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error { return nil }

type fakeCounterRepository struct {
	next int64
}

func (f *fakeCounterRepository) GetNextValue(ctx context.Context, counterType string) (int64, error) {
	f.next++
	return f.next, nil
}

type fakeReauthenticator struct {
	calls int
	err   error
}

func (f *fakeReauthenticator) VerifyPassword(ctx context.Context, employeeID, password string) error {
	f.calls++
	return f.err
}

type leaveServiceDeps struct {
	db            *sql.DB
	sqlMock       sqlmock.Sqlmock
	service       leave.Service
	repo          *fakeLeaveRepository
	ledger        *fakeLedger
	approvals     *fakeApprovalService
	employees     *fakeEmployeeRepository
	leaveTypes    *fakeLeaveTypeRepository
	auditLogs     *fakeAuditRepository
	notifications *fakeNotificationRepository
	outbox        *fakeOutboxRepository
	counter       *fakeCounterRepository
	reauth        *fakeReauthenticator

	departmentID uuid.UUID
	requesterID  uuid.UUID
	approver1    uuid.UUID
	approver2    uuid.UUID
	annualTypeID uuid.UUID
	sickTypeID   uuid.UUID
}

func setupLeaveServiceTest(t *testing.T) *leaveServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	deps := &leaveServiceDeps{
		db:            db,
		sqlMock:       sqlMock,
		repo:          &fakeLeaveRepository{},
		approvals:     &fakeApprovalService{chain: map[string][]uuid.UUID{}},
		employees:     &fakeEmployeeRepository{employees: map[string]*employee.Employee{}},
		leaveTypes:    &fakeLeaveTypeRepository{types: map[string]*leavetype.LeaveType{}},
		auditLogs:     &fakeAuditRepository{},
		notifications: &fakeNotificationRepository{},
		outbox:        &fakeOutboxRepository{},
		counter:       &fakeCounterRepository{next: 41},
		reauth:        &fakeReauthenticator{},

		departmentID: uuid.New(),
		requesterID:  uuid.New(),
		approver1:    uuid.New(),
		approver2:    uuid.New(),
		annualTypeID: uuid.New(),
		sickTypeID:   uuid.New(),
	}

	deps.ledger = &fakeLedger{balances: map[string]int{deps.requesterID.String(): 12}}
	deps.approvals.chain[deps.departmentID.String()] = []uuid.UUID{deps.approver1, deps.approver2}

	deps.employees.employees[deps.requesterID.String()] = &employee.Employee{
		ID:           deps.requesterID,
		FullName:     "Arif Rahman",
		Role:         employee.RoleEmployee,
		DepartmentID: &deps.departmentID,
	}
	deps.employees.employees[deps.approver1.String()] = &employee.Employee{
		ID:       deps.approver1,
		FullName: "Budi Santoso",
		Role:     employee.RoleEmployee,
	}
	deps.employees.employees[deps.approver2.String()] = &employee.Employee{
		ID:       deps.approver2,
		FullName: "Citra Dewi",
		Role:     employee.RoleAdmin,
	}

	deps.leaveTypes.types[deps.annualTypeID.String()] = &leavetype.LeaveType{
		ID: deps.annualTypeID, Code: "ANNUAL", Name: "Annual Leave", AffectsBalance: true,
	}
	deps.leaveTypes.types[deps.sickTypeID.String()] = &leavetype.LeaveType{
		ID: deps.sickTypeID, Code: "SICK", Name: "Sick Leave", RequiresEvidence: true,
	}

	deps.service = leave.NewService(leave.ServiceDeps{
		DB:            db,
		Repo:          deps.repo,
		Ledger:        deps.ledger,
		Approvals:     deps.approvals,
		Employees:     deps.employees,
		LeaveTypes:    deps.leaveTypes,
		AuditLogs:     deps.auditLogs,
		Notifications: deps.notifications,
		Outbox:        deps.outbox,
		Counter:       deps.counter,
		Reauth:        deps.reauth,
	})

	return deps
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func annualSubmission() leave.SubmitLeaveRequest {
	return leave.SubmitLeaveRequest{
		StartDate: "2026-09-07",
		EndDate:   "2026-09-11",
		Days:      5,
		Reason:    "Family visit",
	}
}

func TestLeaveService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("success stamps first approver", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		req := annualSubmission()
		req.LeaveTypeID = deps.annualTypeID.String()

		var created *leave.LeaveRequest
		deps.repo.createFn = func(ctx context.Context, lr *leave.LeaveRequest) error {
			created = lr
			return nil
		}

		resp, err := deps.service.Submit(ctx, deps.requesterID.String(), req)

		assert.NoError(t, err)
		assert.Equal(t, "REQ-000042", resp.RequestNumber)
		assert.Equal(t, string(leave.StatusPending), resp.Status)
		assert.NotNil(t, created)
		assert.Equal(t, deps.approver1, *created.NextApproverID)
		assert.False(t, created.WasDebited)
		assert.Equal(t, 12, deps.ledger.balances[deps.requesterID.String()])
		assert.Len(t, deps.auditLogs.entries, 1)
		assert.Len(t, deps.outbox.created, 1)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative insufficient balance pre-check", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.ledger.balances[deps.requesterID.String()] = 3

		req := annualSubmission()
		req.LeaveTypeID = deps.annualTypeID.String()

		createCalled := false
		deps.repo.createFn = func(ctx context.Context, lr *leave.LeaveRequest) error {
			createCalled = true
			return nil
		}

		_, err := deps.service.Submit(ctx, deps.requesterID.String(), req)

		assert.ErrorIs(t, err, ledgererrors.ErrInsufficientBalance)
		assert.False(t, createCalled)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative no chain configured", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.approvals.chain[deps.departmentID.String()] = nil

		req := annualSubmission()
		req.LeaveTypeID = deps.annualTypeID.String()

		_, err := deps.service.Submit(ctx, deps.requesterID.String(), req)

		assert.Error(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative end date before start date", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		req := annualSubmission()
		req.LeaveTypeID = deps.annualTypeID.String()
		req.StartDate = "2026-09-11"
		req.EndDate = "2026-09-07"

		_, err := deps.service.Submit(ctx, deps.requesterID.String(), req)

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateRange)
	})

	t.Run("computes days from date span when omitted", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		req := annualSubmission()
		req.LeaveTypeID = deps.annualTypeID.String()
		req.Days = 0

		var created *leave.LeaveRequest
		deps.repo.createFn = func(ctx context.Context, lr *leave.LeaveRequest) error {
			created = lr
			return nil
		}

		_, err := deps.service.Submit(ctx, deps.requesterID.String(), req)

		assert.NoError(t, err)
		assert.Equal(t, 5, created.Days)
	})

	t.Run("missing document warns requester and admins", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		adminID := uuid.New()
		deps.employees.admins = []employee.Employee{{ID: adminID, FullName: "Citra Dewi"}}

		expectTx(t, deps.sqlMock, true)

		req := annualSubmission()
		req.LeaveTypeID = deps.sickTypeID.String()
		req.Days = 2

		resp, err := deps.service.Submit(ctx, deps.requesterID.String(), req)

		assert.NoError(t, err)
		assert.Equal(t, string(leave.StatusPending), resp.Status)
		assert.Len(t, deps.notifications.created, 2)
		assert.Equal(t, deps.requesterID, deps.notifications.created[0].RecipientID)
		assert.Equal(t, adminID, deps.notifications.created[1].RecipientID)
		for _, n := range deps.notifications.created {
			assert.Equal(t, notification.CategoryWarning, n.Category)
		}
		// one queued event per notification plus the lifecycle event
		assert.Len(t, deps.outbox.created, 3)
		// sick leave never touches the ledger
		assert.Equal(t, 12, deps.ledger.balances[deps.requesterID.String()])
	})
}

func pendingRequest(deps *leaveServiceDeps, approver uuid.UUID) *leave.LeaveRequest {
	return &leave.LeaveRequest{
		ID:             uuid.New(),
		RequestNumber:  "REQ-000042",
		EmployeeID:     deps.requesterID,
		LeaveTypeID:    deps.annualTypeID,
		StartDate:      time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC),
		Days:           5,
		Reason:         "Family visit",
		Status:         leave.StatusPending,
		NextApproverID: &approver,
	}
}

func TestLeaveService_Decide(t *testing.T) {
	ctx := context.Background()

	t.Run("approve forwards to next approver", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		lr := pendingRequest(deps, deps.approver1)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return lr, nil
		}

		var updated *leave.LeaveRequest
		deps.repo.updateStatusFn = func(ctx context.Context, lr *leave.LeaveRequest) error {
			updated = lr
			return nil
		}

		resp, err := deps.service.Decide(ctx, lr.ID.String(), deps.approver1.String(), leave.DecisionApprove)

		assert.NoError(t, err)
		assert.Equal(t, string(leave.StatusPending), resp.Status)
		assert.Equal(t, deps.approver2, *updated.NextApproverID)
		assert.False(t, updated.WasDebited)
		assert.Equal(t, 12, deps.ledger.balances[deps.requesterID.String()])
		assert.Equal(t, 0, deps.ledger.debits)
		assert.Len(t, deps.auditLogs.entries, 1)
		assert.Len(t, deps.notifications.created, 1)
		assert.Equal(t, deps.approver2, deps.notifications.created[0].RecipientID)
		assert.Equal(t, notification.CategoryInfo, deps.notifications.created[0].Category)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("final approval debits and notifies requester", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		lr := pendingRequest(deps, deps.approver2)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return lr, nil
		}

		var updated *leave.LeaveRequest
		deps.repo.updateStatusFn = func(ctx context.Context, lr *leave.LeaveRequest) error {
			updated = lr
			return nil
		}

		resp, err := deps.service.Decide(ctx, lr.ID.String(), deps.approver2.String(), leave.DecisionApprove)

		assert.NoError(t, err)
		assert.Equal(t, string(leave.StatusApproved), resp.Status)
		assert.Nil(t, updated.NextApproverID)
		assert.True(t, updated.WasDebited)
		assert.Equal(t, 7, deps.ledger.balances[deps.requesterID.String()])
		assert.Equal(t, 1, deps.ledger.debits)
		assert.Len(t, deps.notifications.created, 1)
		assert.Equal(t, deps.requesterID, deps.notifications.created[0].RecipientID)
		assert.Equal(t, notification.CategorySuccess, deps.notifications.created[0].Category)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative failed debit rolls the transition back", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		deps.ledger.debitErr = ledgererrors.ErrInsufficientBalance

		lr := pendingRequest(deps, deps.approver2)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return lr, nil
		}

		updateCalled := false
		deps.repo.updateStatusFn = func(ctx context.Context, lr *leave.LeaveRequest) error {
			updateCalled = true
			return nil
		}

		_, err := deps.service.Decide(ctx, lr.ID.String(), deps.approver2.String(), leave.DecisionApprove)

		assert.ErrorIs(t, err, ledgererrors.ErrInsufficientBalance)
		assert.False(t, updateCalled)
		assert.Empty(t, deps.auditLogs.entries)
		assert.Empty(t, deps.notifications.created)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("reject clears approver and warns requester", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		lr := pendingRequest(deps, deps.approver2)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return lr, nil
		}

		var updated *leave.LeaveRequest
		deps.repo.updateStatusFn = func(ctx context.Context, lr *leave.LeaveRequest) error {
			updated = lr
			return nil
		}

		resp, err := deps.service.Decide(ctx, lr.ID.String(), deps.approver2.String(), leave.DecisionReject)

		assert.NoError(t, err)
		assert.Equal(t, string(leave.StatusRejected), resp.Status)
		assert.Nil(t, updated.NextApproverID)
		assert.Equal(t, 12, deps.ledger.balances[deps.requesterID.String()])
		assert.Len(t, deps.notifications.created, 1)
		assert.Equal(t, deps.requesterID, deps.notifications.created[0].RecipientID)
		assert.Equal(t, notification.CategoryWarning, deps.notifications.created[0].Category)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("suspend emits no notifications", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		lr := pendingRequest(deps, deps.approver1)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return lr, nil
		}

		var updated *leave.LeaveRequest
		deps.repo.updateStatusFn = func(ctx context.Context, lr *leave.LeaveRequest) error {
			updated = lr
			return nil
		}

		resp, err := deps.service.Decide(ctx, lr.ID.String(), deps.approver1.String(), leave.DecisionSuspend)

		assert.NoError(t, err)
		assert.Equal(t, string(leave.StatusSuspended), resp.Status)
		assert.Nil(t, updated.NextApproverID)
		assert.False(t, updated.WasDebited)
		assert.Empty(t, deps.notifications.created)
		assert.Len(t, deps.auditLogs.entries, 1)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative wrong actor", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		lr := pendingRequest(deps, deps.approver2)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return lr, nil
		}

		_, err := deps.service.Decide(ctx, lr.ID.String(), deps.approver1.String(), leave.DecisionApprove)

		assert.ErrorIs(t, err, leaveerrors.ErrNotAuthorizedApprover)
		assert.Equal(t, leave.StatusPending, lr.Status)
		assert.Empty(t, deps.auditLogs.entries)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative acting on a rejected request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		lr := pendingRequest(deps, deps.approver1)
		lr.Status = leave.StatusRejected
		lr.NextApproverID = nil
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return lr, nil
		}

		_, err := deps.service.Decide(ctx, lr.ID.String(), deps.approver1.String(), leave.DecisionApprove)

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidTransition)
		assert.Empty(t, deps.auditLogs.entries)
		assert.Empty(t, deps.notifications.created)
		assert.Equal(t, 0, deps.ledger.debits)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative unknown decision", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Decide(ctx, uuid.NewString(), deps.approver1.String(), leave.Decision("ESCALATE"))

		assert.ErrorIs(t, err, leaveerrors.ErrUnknownDecision)
	})
}

func TestLeaveService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("approved request restores balance after reauthentication", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		deps.ledger.balances[deps.requesterID.String()] = 7

		lr := pendingRequest(deps, deps.approver2)
		lr.Status = leave.StatusApproved
		lr.NextApproverID = nil
		lr.WasDebited = true
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return lr, nil
		}

		var updated *leave.LeaveRequest
		deps.repo.updateStatusFn = func(ctx context.Context, lr *leave.LeaveRequest) error {
			updated = lr
			return nil
		}

		resp, err := deps.service.Cancel(ctx, lr.ID.String(), deps.requesterID.String(), "s3cret")

		assert.NoError(t, err)
		assert.Equal(t, string(leave.StatusCancelled), resp.Status)
		assert.Equal(t, 1, deps.reauth.calls)
		assert.Equal(t, 12, deps.ledger.balances[deps.requesterID.String()])
		assert.Equal(t, 1, deps.ledger.credits)
		assert.False(t, updated.WasDebited)
		assert.Len(t, deps.auditLogs.entries, 1)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative failed reauthentication leaves everything unchanged", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		deps.reauth.err = errors.New("bad password")
		deps.ledger.balances[deps.requesterID.String()] = 7

		lr := pendingRequest(deps, deps.approver2)
		lr.Status = leave.StatusApproved
		lr.NextApproverID = nil
		lr.WasDebited = true
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return lr, nil
		}

		_, err := deps.service.Cancel(ctx, lr.ID.String(), deps.requesterID.String(), "wrong")

		assert.ErrorIs(t, err, leaveerrors.ErrReauthenticationFailed)
		assert.Equal(t, 7, deps.ledger.balances[deps.requesterID.String()])
		assert.Equal(t, 0, deps.ledger.credits)
		assert.True(t, lr.WasDebited)
		assert.Empty(t, deps.auditLogs.entries)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("pending request cancels without reauthentication", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		lr := pendingRequest(deps, deps.approver1)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return lr, nil
		}
		deps.repo.updateStatusFn = func(ctx context.Context, lr *leave.LeaveRequest) error { return nil }

		resp, err := deps.service.Cancel(ctx, lr.ID.String(), deps.requesterID.String(), "")

		assert.NoError(t, err)
		assert.Equal(t, string(leave.StatusCancelled), resp.Status)
		assert.Equal(t, 0, deps.reauth.calls)
		assert.Equal(t, 0, deps.ledger.credits)
		assert.Equal(t, 12, deps.ledger.balances[deps.requesterID.String()])
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("suspended request cancels without ledger credit", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		lr := pendingRequest(deps, deps.approver1)
		lr.Status = leave.StatusSuspended
		lr.NextApproverID = nil
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return lr, nil
		}

		resp, err := deps.service.Cancel(ctx, lr.ID.String(), deps.requesterID.String(), "s3cret")

		assert.NoError(t, err)
		assert.Equal(t, string(leave.StatusCancelled), resp.Status)
		assert.Equal(t, 1, deps.reauth.calls)
		assert.Equal(t, 0, deps.ledger.credits)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative cancelling a cancelled request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		lr := pendingRequest(deps, deps.approver1)
		lr.Status = leave.StatusCancelled
		lr.NextApproverID = nil
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return lr, nil
		}

		_, err := deps.service.Cancel(ctx, lr.ID.String(), deps.requesterID.String(), "")

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidTransition)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative unrelated employee cannot cancel", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		lr := pendingRequest(deps, deps.approver1)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return lr, nil
		}

		_, err := deps.service.Cancel(ctx, lr.ID.String(), deps.approver1.String(), "")

		assert.ErrorIs(t, err, leaveerrors.ErrCancellationForbidden)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_ChainTermination(t *testing.T) {
	// A department with a chain of length N takes exactly N approvals
	// to reach Approved.
	ctx := context.Background()
	deps := setupLeaveServiceTest(t)
	defer deps.db.Close()

	lr := pendingRequest(deps, deps.approver1)
	deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
		return lr, nil
	}
	deps.repo.updateStatusFn = func(ctx context.Context, lr *leave.LeaveRequest) error { return nil }

	expectTx(t, deps.sqlMock, true)
	resp, err := deps.service.Decide(ctx, lr.ID.String(), deps.approver1.String(), leave.DecisionApprove)
	assert.NoError(t, err)
	assert.Equal(t, string(leave.StatusPending), resp.Status)

	expectTx(t, deps.sqlMock, true)
	resp, err = deps.service.Decide(ctx, lr.ID.String(), deps.approver2.String(), leave.DecisionApprove)
	assert.NoError(t, err)
	assert.Equal(t, string(leave.StatusApproved), resp.Status)

	assert.Equal(t, 1, deps.ledger.debits)
	assert.Equal(t, 7, deps.ledger.balances[deps.requesterID.String()])
	assert.Len(t, deps.auditLogs.entries, 2)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestLeaveService_ListPendingFor(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		lr := pendingRequest(deps, deps.approver1)
		deps.repo.listPendingFn = func(ctx context.Context, approverID string) ([]leave.LeaveRequest, error) {
			assert.Equal(t, deps.approver1.String(), approverID)
			return []leave.LeaveRequest{*lr}, nil
		}

		resp, err := deps.service.ListPendingFor(ctx, deps.approver1.String())

		assert.NoError(t, err)
		assert.Len(t, resp, 1)
		assert.Equal(t, "Arif Rahman", resp[0].EmployeeName)
		assert.Equal(t, "Annual Leave", resp[0].LeaveTypeName)
	})

	t.Run("negative repo error", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.repo.listPendingFn = func(ctx context.Context, approverID string) ([]leave.LeaveRequest, error) {
			return nil, errors.New("db error")
		}

		resp, err := deps.service.ListPendingFor(ctx, deps.approver1.String())

		assert.Error(t, err)
		assert.Nil(t, resp)
	})
}
