package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/expenseflow/expenseflow/internal"
	"github.com/expenseflow/expenseflow/internal/expense"
)

type expenseRecord struct {
	ID             string     `gorm:"primaryKey"`
	SubmitterID    string     `gorm:"column:submitter_id;not null;index"`
	PaidBy         string     `gorm:"column:paid_by;not null"`
	Amount         float64    `gorm:"not null"`
	Currency       string     `gorm:"not null"`
	Category       string     `gorm:"not null"`
	Description    string     `gorm:"not null"`
	ExpenseDate    time.Time  `gorm:"column:expense_date"`
	Status         string     `gorm:"not null;default:pending;index"`
	ManagerComment *string    `gorm:"column:manager_comment"`
	ReviewedBy     *string    `gorm:"column:reviewed_by"`
	ReviewedAt     *time.Time `gorm:"column:reviewed_at"`
	SubmittedAt    time.Time  `gorm:"column:submitted_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (expenseRecord) TableName() string { return "expenses" }

func toRecord(e *expense.Expense) *expenseRecord {
	return &expenseRecord{
		ID:             e.ID,
		SubmitterID:    e.SubmitterID,
		PaidBy:         e.PaidBy,
		Amount:         e.Amount,
		Currency:       e.Currency,
		Category:       e.Category,
		Description:    e.Description,
		ExpenseDate:    e.ExpenseDate,
		Status:         e.Status,
		ManagerComment: e.ManagerComment,
		ReviewedBy:     e.ReviewedBy,
		ReviewedAt:     e.ReviewedAt,
		SubmittedAt:    e.SubmittedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func fromRecord(r *expenseRecord) *expense.Expense {
	return &expense.Expense{
		ID:             r.ID,
		SubmitterID:    r.SubmitterID,
		PaidBy:         r.PaidBy,
		Amount:         r.Amount,
		Currency:       r.Currency,
		Category:       r.Category,
		Description:    r.Description,
		ExpenseDate:    r.ExpenseDate,
		Status:         r.Status,
		ManagerComment: r.ManagerComment,
		ReviewedBy:     r.ReviewedBy,
		ReviewedAt:     r.ReviewedAt,
		SubmittedAt:    r.SubmittedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func fromRecords(records []*expenseRecord) []*expense.Expense {
	out := make([]*expense.Expense, len(records))
	for i, r := range records {
		out[i] = fromRecord(r)
	}
	return out
}

// ExpenseRepository implements expense.Repository using GORM.
type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) expense.Repository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(ctx context.Context, exp *expense.Expense) error {
	if err := r.db.WithContext(ctx).Create(toRecord(exp)).Error; err != nil {
		return internal.NewInternalError("failed to store expense", err)
	}
	return nil
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*expense.Expense, error) {
	var rec expenseRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, expense.ErrExpenseNotFound
		}
		return nil, internal.NewInternalError("failed to load expense", err)
	}
	return fromRecord(&rec), nil
}

func (r *ExpenseRepository) GetBySubmitter(ctx context.Context, submitterID string, limit, offset int) ([]*expense.Expense, error) {
	var records []*expenseRecord
	err := r.db.WithContext(ctx).
		Where("submitter_id = ?", submitterID).
		Order("submitted_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list expenses", err)
	}
	return fromRecords(records), nil
}

func (r *ExpenseRepository) GetAll(ctx context.Context, limit, offset int) ([]*expense.Expense, error) {
	var records []*expenseRecord
	err := r.db.WithContext(ctx).
		Order("submitted_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list expenses", err)
	}
	return fromRecords(records), nil
}

// GetPending returns the review queue oldest first, so reviewers work
// through submissions in arrival order.
func (r *ExpenseRepository) GetPending(ctx context.Context, limit, offset int) ([]*expense.Expense, error) {
	var records []*expenseRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", expense.StatusPending).
		Order("submitted_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to list pending expenses", err)
	}
	return fromRecords(records), nil
}

// All returns the full collection in submission order for reporting,
// which always recomputes from scratch.
func (r *ExpenseRepository) All(ctx context.Context) ([]*expense.Expense, error) {
	var records []*expenseRecord
	err := r.db.WithContext(ctx).Order("submitted_at ASC").Find(&records).Error
	if err != nil {
		return nil, internal.NewInternalError("failed to scan expenses", err)
	}
	return fromRecords(records), nil
}

func (r *ExpenseRepository) UpdateReview(ctx context.Context, exp *expense.Expense) error {
	res := r.db.WithContext(ctx).Model(&expenseRecord{}).
		Where("id = ?", exp.ID).
		Updates(map[string]interface{}{
			"status":          exp.Status,
			"manager_comment": exp.ManagerComment,
			"reviewed_by":     exp.ReviewedBy,
			"reviewed_at":     exp.ReviewedAt,
			"updated_at":      exp.UpdatedAt,
		})
	if res.Error != nil {
		return internal.NewInternalError("failed to update expense review", res.Error)
	}
	if res.RowsAffected == 0 {
		return expense.ErrExpenseNotFound
	}
	return nil
}
