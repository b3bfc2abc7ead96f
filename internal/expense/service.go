package expense

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/expenseflow/expenseflow/internal"
	"github.com/expenseflow/expenseflow/internal/auth"
	"github.com/expenseflow/expenseflow/pkg/keyedmutex"
)

// Repository is the data access surface for expense records. The store is
// server-owned and authoritative; clients only ever see projections of it.
type Repository interface {
	Create(ctx context.Context, exp *Expense) error
	GetByID(ctx context.Context, id string) (*Expense, error)
	GetBySubmitter(ctx context.Context, submitterID string, limit, offset int) ([]*Expense, error)
	GetAll(ctx context.Context, limit, offset int) ([]*Expense, error)
	GetPending(ctx context.Context, limit, offset int) ([]*Expense, error)
	All(ctx context.Context) ([]*Expense, error)
	UpdateReview(ctx context.Context, exp *Expense) error
}

// Service handles expense lifecycle business logic. Review actions on the
// same record are serialized per record id, so two managers racing on one
// expense cannot both land a transition.
type Service struct {
	repo   Repository
	locks  *keyedmutex.KeyedMutex
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		locks:  keyedmutex.New(),
		logger: logger,
	}
}

// Submit creates a new pending expense for the session principal.
// Validation happens before the store is touched.
func (s *Service) Submit(ctx context.Context, session *auth.Session, dto CreateExpenseDTO) (*Expense, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("expense validation failed", "error", err, "submitter_id", session.PrincipalID)
		return nil, err
	}

	now := time.Now()
	exp := &Expense{
		ID:          uuid.NewString(),
		SubmitterID: session.PrincipalID,
		PaidBy:      dto.PaidBy,
		Amount:      dto.Amount,
		Currency:    dto.Currency,
		Category:    dto.Category,
		Description: dto.Description,
		ExpenseDate: dto.ExpenseDate,
		Status:      StatusPending,
		SubmittedAt: now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, exp); err != nil {
		s.logger.Error("failed to create expense", "error", err, "submitter_id", session.PrincipalID)
		return nil, err
	}

	s.logger.Info("expense submitted",
		"expense_id", exp.ID,
		"submitter_id", session.PrincipalID,
		"amount", exp.Amount,
		"currency", exp.Currency)
	return exp, nil
}

// GetByID returns one expense; submitters see their own, reviewers see
// everything.
func (s *Service) GetByID(ctx context.Context, session *auth.Session, id string) (*Expense, error) {
	exp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.CanReview() && exp.SubmitterID != session.PrincipalID {
		s.logger.Warn("unauthorized expense access",
			"expense_id", id,
			"principal_id", session.PrincipalID)
		return nil, ErrUnauthorizedAccess
	}
	return exp, nil
}

// ListMine returns the session principal's own submissions.
func (s *Service) ListMine(ctx context.Context, session *auth.Session, limit, offset int) ([]*Expense, error) {
	return s.repo.GetBySubmitter(ctx, session.PrincipalID, limit, offset)
}

// ListAll returns every expense, newest first. Reviewer-only.
func (s *Service) ListAll(ctx context.Context, session *auth.Session, limit, offset int) ([]*Expense, error) {
	if !session.CanReview() {
		return nil, ErrUnauthorizedAccess
	}
	return s.repo.GetAll(ctx, limit, offset)
}

// ListPending returns the review queue in submission order (FIFO).
// Reviewer-only.
func (s *Service) ListPending(ctx context.Context, session *auth.Session, limit, offset int) ([]*Expense, error) {
	if !session.CanReview() {
		return nil, ErrUnauthorizedAccess
	}
	return s.repo.GetPending(ctx, limit, offset)
}

// Approve transitions a pending expense to approved. The comment is
// optional.
func (s *Service) Approve(ctx context.Context, session *auth.Session, id, comment string) (*Expense, error) {
	return s.review(ctx, session, id, func(exp *Expense) error {
		return exp.Approve(session.PrincipalID, comment)
	})
}

// Reject transitions a pending expense to rejected; a blank comment
// fails before anything is written.
func (s *Service) Reject(ctx context.Context, session *auth.Session, id, comment string) (*Expense, error) {
	return s.review(ctx, session, id, func(exp *Expense) error {
		return exp.Reject(session.PrincipalID, comment)
	})
}

func (s *Service) review(ctx context.Context, session *auth.Session, id string, transition func(*Expense) error) (*Expense, error) {
	if !session.CanReview() {
		s.logger.Warn("review denied: insufficient role",
			"expense_id", id,
			"principal_id", session.PrincipalID,
			"role", session.Role)
		return nil, ErrUnauthorizedAccess
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	exp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := transition(exp); err != nil {
		s.logger.Warn("review transition refused",
			"expense_id", id,
			"status", exp.Status,
			"error", err)
		return nil, err
	}

	if err := s.repo.UpdateReview(ctx, exp); err != nil {
		s.logger.Error("failed to persist review", "error", err, "expense_id", id)
		return nil, internal.NewInternalError("failed to persist review", err)
	}

	s.logger.Info("expense reviewed",
		"expense_id", id,
		"status", exp.Status,
		"reviewer_id", session.PrincipalID)
	return exp, nil
}
