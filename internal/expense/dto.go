package expense

import (
	"strings"
	"time"

	"github.com/expenseflow/expenseflow/internal"
)

// CreateExpenseDTO is the submission payload. Status is never accepted
// from the client; every new record starts pending.
type CreateExpenseDTO struct {
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	ExpenseDate time.Time `json:"date"`
	PaidBy      string    `json:"paidBy"`
}

func (d CreateExpenseDTO) Validate() error {
	if d.Amount <= 0 {
		return internal.NewValidationError("amount must be greater than 0", internal.ErrCodeInvalidExpense)
	}
	if strings.TrimSpace(d.Currency) == "" {
		return internal.NewValidationError("currency is required", internal.ErrCodeInvalidExpense)
	}
	if strings.TrimSpace(d.Category) == "" {
		return internal.NewValidationError("category is required", internal.ErrCodeInvalidExpense)
	}
	if strings.TrimSpace(d.Description) == "" {
		return internal.NewValidationError("description is required", internal.ErrCodeInvalidExpense)
	}
	if len(d.Description) > 500 {
		return internal.NewValidationError("description must be less than 500 characters", internal.ErrCodeInvalidExpense)
	}
	if strings.TrimSpace(d.PaidBy) == "" {
		return internal.NewValidationError("paidBy is required", internal.ErrCodeInvalidExpense)
	}
	if d.ExpenseDate.IsZero() {
		return internal.NewValidationError("expense date is required", internal.ErrCodeInvalidExpense)
	}
	if d.ExpenseDate.After(time.Now()) {
		return internal.NewValidationError("expense date cannot be in the future", internal.ErrCodeInvalidExpense)
	}
	return nil
}

// ReviewDTO carries the optional (approve) or mandatory (reject) manager
// comment.
type ReviewDTO struct {
	Comment string `json:"comment"`
}
