package postgres

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/expenseflow/expenseflow/internal/expense"
)

func TestExpenseRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Expense Repository Suite")
}

var _ = Describe("ExpenseRepository", func() {
	var (
		db   *gorm.DB
		repo expense.Repository
		ctx  context.Context
	)

	newExpense := func(id, submitterID, status string, submittedAt time.Time) *expense.Expense {
		return &expense.Expense{
			ID:          id,
			SubmitterID: submitterID,
			PaidBy:      "Evan",
			Amount:      42.50,
			Currency:    "USD",
			Category:    "Meals",
			Description: "Team lunch",
			ExpenseDate: submittedAt.AddDate(0, 0, -1),
			Status:      status,
			SubmittedAt: submittedAt,
			UpdatedAt:   submittedAt,
		}
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&expenseRecord{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewExpenseRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Create and GetByID", func() {
		It("should round-trip an expense", func() {
			exp := newExpense("exp-1", "emp-1", expense.StatusPending, time.Now())
			Expect(repo.Create(ctx, exp)).To(Succeed())

			found, err := repo.GetByID(ctx, "exp-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.SubmitterID).To(Equal("emp-1"))
			Expect(found.Amount).To(Equal(42.50))
			Expect(found.Status).To(Equal(expense.StatusPending))
			Expect(found.ManagerComment).To(BeNil())
		})

		It("should report not found for an unknown id", func() {
			_, err := repo.GetByID(ctx, "no-such-id")
			Expect(err).To(MatchError(expense.ErrExpenseNotFound))
		})
	})

	Describe("GetBySubmitter", func() {
		It("should list one submitter's expenses newest first", func() {
			base := time.Now()
			Expect(repo.Create(ctx, newExpense("exp-old", "emp-1", expense.StatusPending, base.Add(-time.Hour)))).To(Succeed())
			Expect(repo.Create(ctx, newExpense("exp-new", "emp-1", expense.StatusPending, base))).To(Succeed())
			Expect(repo.Create(ctx, newExpense("exp-other", "emp-2", expense.StatusPending, base))).To(Succeed())

			mine, err := repo.GetBySubmitter(ctx, "emp-1", 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(2))
			Expect(mine[0].ID).To(Equal("exp-new"))
			Expect(mine[1].ID).To(Equal("exp-old"))
		})
	})

	Describe("GetPending", func() {
		It("should list only pending expenses oldest first", func() {
			base := time.Now()
			Expect(repo.Create(ctx, newExpense("exp-1", "emp-1", expense.StatusPending, base))).To(Succeed())
			Expect(repo.Create(ctx, newExpense("exp-2", "emp-1", expense.StatusApproved, base.Add(-2*time.Hour)))).To(Succeed())
			Expect(repo.Create(ctx, newExpense("exp-3", "emp-1", expense.StatusPending, base.Add(-time.Hour)))).To(Succeed())

			pending, err := repo.GetPending(ctx, 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(HaveLen(2))
			Expect(pending[0].ID).To(Equal("exp-3"))
			Expect(pending[1].ID).To(Equal("exp-1"))
		})
	})

	Describe("All", func() {
		It("should scan the full collection in submission order", func() {
			base := time.Now()
			Expect(repo.Create(ctx, newExpense("exp-2", "emp-1", expense.StatusApproved, base))).To(Succeed())
			Expect(repo.Create(ctx, newExpense("exp-1", "emp-2", expense.StatusRejected, base.Add(-time.Hour)))).To(Succeed())

			all, err := repo.All(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
			Expect(all[0].ID).To(Equal("exp-1"))
			Expect(all[1].ID).To(Equal("exp-2"))
		})
	})

	Describe("UpdateReview", func() {
		It("should persist the review outcome and comment", func() {
			exp := newExpense("exp-1", "emp-1", expense.StatusPending, time.Now())
			Expect(repo.Create(ctx, exp)).To(Succeed())

			Expect(exp.Reject("mgr-1", "missing receipt")).To(Succeed())
			Expect(repo.UpdateReview(ctx, exp)).To(Succeed())

			found, err := repo.GetByID(ctx, "exp-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(found.Status).To(Equal(expense.StatusRejected))
			Expect(*found.ManagerComment).To(Equal("missing receipt"))
			Expect(*found.ReviewedBy).To(Equal("mgr-1"))
			Expect(found.ReviewedAt).NotTo(BeNil())
		})

		It("should report not found for a missing row", func() {
			exp := newExpense("no-such-id", "emp-1", expense.StatusApproved, time.Now())
			err := repo.UpdateReview(ctx, exp)
			Expect(err).To(MatchError(expense.ErrExpenseNotFound))
		})
	})
})
