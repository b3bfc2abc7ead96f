package expense

import (
	"strings"
	"time"

	"github.com/expenseflow/expenseflow/internal"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Expense is a submitted expense record. Its status moves pending ->
// approved|rejected exactly once; both outcomes are terminal and the
// transition methods refuse anything else.
type Expense struct {
	ID             string     `json:"id"`
	SubmitterID    string     `json:"submitter_id"`
	PaidBy         string     `json:"paidBy"`
	Amount         float64    `json:"amount"`
	Currency       string     `json:"currency"`
	Category       string     `json:"category"`
	Description    string     `json:"description"`
	ExpenseDate    time.Time  `json:"date"`
	Status         string     `json:"status"`
	ManagerComment *string    `json:"managerComment,omitempty"`
	ReviewedBy     *string    `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	SubmittedAt    time.Time  `json:"submittedAt"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (e *Expense) IsPending() bool { return e.Status == StatusPending }

// Approve transitions a pending record to approved. The comment is
// optional.
func (e *Expense) Approve(reviewerID, comment string) error {
	if !e.IsPending() {
		return ErrAlreadyReviewed
	}
	now := time.Now()
	e.Status = StatusApproved
	e.ReviewedBy = &reviewerID
	e.ReviewedAt = &now
	e.UpdatedAt = now
	if c := strings.TrimSpace(comment); c != "" {
		e.ManagerComment = &c
	}
	return nil
}

// Reject transitions a pending record to rejected. A blank comment is a
// policy violation, not a storage concern, so it is refused here.
func (e *Expense) Reject(reviewerID, comment string) error {
	if !e.IsPending() {
		return ErrAlreadyReviewed
	}
	c := strings.TrimSpace(comment)
	if c == "" {
		return ErrCommentRequired
	}
	now := time.Now()
	e.Status = StatusRejected
	e.ReviewedBy = &reviewerID
	e.ReviewedAt = &now
	e.UpdatedAt = now
	e.ManagerComment = &c
	return nil
}

var (
	ErrExpenseNotFound    = internal.NewNotFoundError("expense not found", internal.ErrCodeExpenseNotFound)
	ErrAlreadyReviewed    = internal.NewConflictError("expense has already been reviewed", internal.ErrCodeAlreadyReviewed)
	ErrCommentRequired    = internal.NewValidationError("a comment is required when rejecting an expense", internal.ErrCodeCommentRequired)
	ErrUnauthorizedAccess = internal.NewForbiddenError("unauthorized access to expense", internal.ErrCodeUnauthorizedView)
)
