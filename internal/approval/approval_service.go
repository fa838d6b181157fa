package approval

import (
	"context"

	approvalerrors "leavedesk/internal/approval/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service resolves a department's ordered approver chain. Chains are
// configuration data and are treated as immutable at runtime; all
// "who approves next" questions in the workflow go through here.
//
//go:generate mockgen -source=approval_service.go -destination=mock/approval_service_mock.go -package=mock
type Service interface {
	ChainFor(ctx context.Context, departmentID string) ([]uuid.UUID, error)
	FirstApprover(ctx context.Context, departmentID string) (uuid.UUID, error)
	NextApprover(ctx context.Context, departmentID string, currentApproverID uuid.UUID) (uuid.UUID, bool, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("approval.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("approval.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) ChainFor(ctx context.Context, departmentID string) ([]uuid.UUID, error) {
	steps, err := s.repo.FindChain(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	chain := make([]uuid.UUID, len(steps))
	for i, step := range steps {
		chain[i] = step.ApproverID
	}
	return chain, nil
}

// FirstApprover returns the head of the chain. Fails with
// ErrNoChainConfigured for departments with an empty chain so the
// caller surfaces the misconfiguration instead of silently defaulting.
// The head is verified against the employee roster; a chain left
// pointing at a removed employee fails with ErrUnknownApprover rather
// than stamping a request nobody can act on.
func (s *service) FirstApprover(ctx context.Context, departmentID string) (uuid.UUID, error) {
	chain, err := s.ChainFor(ctx, departmentID)
	if err != nil {
		return uuid.Nil, err
	}
	if len(chain) == 0 {
		s.logger.Warn("department has no approval chain", zap.String("department_id", departmentID))
		return uuid.Nil, approvalerrors.ErrNoChainConfigured
	}

	exists, err := s.repo.ApproverExists(ctx, chain[0].String())
	if err != nil {
		return uuid.Nil, err
	}
	if !exists {
		s.logger.Warn("approval chain head is not an active employee",
			zap.String("department_id", departmentID),
			zap.String("approver_id", chain[0].String()),
		)
		return uuid.Nil, approvalerrors.ErrUnknownApprover
	}
	return chain[0], nil
}

// NextApprover returns the chain entry immediately after currentApproverID.
// The second return is false when the current approver is the last entry
// or not part of the chain at all.
func (s *service) NextApprover(ctx context.Context, departmentID string, currentApproverID uuid.UUID) (uuid.UUID, bool, error) {
	chain, err := s.ChainFor(ctx, departmentID)
	if err != nil {
		return uuid.Nil, false, err
	}

	for i, approverID := range chain {
		if approverID == currentApproverID {
			if i+1 < len(chain) {
				return chain[i+1], true, nil
			}
			return uuid.Nil, false, nil
		}
	}
	return uuid.Nil, false, nil
}
