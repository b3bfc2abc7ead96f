package report_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/expenseflow/expenseflow/internal/expense"
	"github.com/expenseflow/expenseflow/internal/report"
)

func TestReportService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Report Service Suite")
}

type mockSource struct {
	expenses []*expense.Expense
	err      error
	calls    int
}

func (m *mockSource) All(ctx context.Context) ([]*expense.Expense, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.expenses, nil
}

func fixture(amount float64, status, category, payer, day string) *expense.Expense {
	date, _ := time.Parse("2006-01-02", day)
	return &expense.Expense{
		Amount:      amount,
		Status:      status,
		Category:    category,
		PaidBy:      payer,
		ExpenseDate: date,
	}
}

var _ = Describe("ReportService", func() {
	var (
		service *report.Service
		source  *mockSource
		ctx     context.Context
	)

	BeforeEach(func() {
		source = &mockSource{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = report.NewService(source, logger)
		ctx = context.Background()
	})

	Describe("Summary", func() {
		It("should total every expense regardless of status", func() {
			// Given
			source.expenses = []*expense.Expense{
				fixture(100, expense.StatusApproved, "Meals", "Evan", "2026-01-10"),
				fixture(200, expense.StatusPending, "Travel", "Evan", "2026-01-11"),
				fixture(50, expense.StatusRejected, "Office", "Maya", "2026-01-12"),
			}

			// When
			summary, err := service.Summary(ctx)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.TotalCount).To(Equal(3))
			Expect(summary.TotalAmount).To(Equal(350.0))
			Expect(summary.ApprovedCount).To(Equal(1))
			Expect(summary.PendingCount).To(Equal(1))
			Expect(summary.RejectedCount).To(Equal(1))
		})

		It("should report zeros over an empty collection", func() {
			// When
			summary, err := service.Summary(ctx)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.TotalCount).To(BeZero())
			Expect(summary.TotalAmount).To(BeZero())
		})

		It("should recompute on every call", func() {
			// Given
			source.expenses = []*expense.Expense{
				fixture(100, expense.StatusApproved, "Meals", "Evan", "2026-01-10"),
			}
			_, err := service.Summary(ctx)
			Expect(err).ToNot(HaveOccurred())

			// When
			source.expenses = append(source.expenses,
				fixture(25, expense.StatusPending, "Meals", "Evan", "2026-01-11"))
			summary, err := service.Summary(ctx)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(summary.TotalCount).To(Equal(2))
			Expect(summary.TotalAmount).To(Equal(125.0))
		})

		It("should propagate a failed scan", func() {
			// Given
			source.err = errors.New("scan failed")

			// When
			_, err := service.Summary(ctx)

			// Then
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ByCategory", func() {
		It("should group amounts per category in first-encounter order", func() {
			// Given
			source.expenses = []*expense.Expense{
				fixture(100, expense.StatusApproved, "Travel", "Evan", "2026-01-10"),
				fixture(30, expense.StatusPending, "Meals", "Evan", "2026-01-11"),
				fixture(70, expense.StatusApproved, "Travel", "Maya", "2026-01-12"),
			}

			// When
			totals, err := service.ByCategory(ctx)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(totals).To(HaveLen(2))
			Expect(totals[0].Category).To(Equal("Travel"))
			Expect(totals[0].Amount).To(Equal(170.0))
			Expect(totals[0].Count).To(Equal(2))
			Expect(totals[1].Category).To(Equal("Meals"))
			Expect(totals[1].Amount).To(Equal(30.0))
		})
	})

	Describe("ByDate", func() {
		It("should group amounts per day, oldest day first", func() {
			// Given
			source.expenses = []*expense.Expense{
				fixture(100, expense.StatusApproved, "Meals", "Evan", "2026-01-12"),
				fixture(30, expense.StatusPending, "Meals", "Evan", "2026-01-10"),
				fixture(70, expense.StatusApproved, "Meals", "Maya", "2026-01-12"),
			}

			// When
			totals, err := service.ByDate(ctx)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(totals).To(HaveLen(2))
			Expect(totals[0].Date).To(Equal("2026-01-10"))
			Expect(totals[0].Amount).To(Equal(30.0))
			Expect(totals[1].Date).To(Equal("2026-01-12"))
			Expect(totals[1].Amount).To(Equal(170.0))
		})
	})

	Describe("TopPayers", func() {
		BeforeEach(func() {
			source.expenses = []*expense.Expense{
				fixture(50, expense.StatusApproved, "Meals", "Evan", "2026-01-10"),
				fixture(200, expense.StatusApproved, "Travel", "Maya", "2026-01-10"),
				fixture(50, expense.StatusPending, "Meals", "Evan", "2026-01-11"),
				fixture(100, expense.StatusApproved, "Office", "Ada", "2026-01-11"),
			}
		})

		It("should rank payers by total amount descending", func() {
			// When
			totals, err := service.TopPayers(ctx, 10)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(totals).To(HaveLen(3))
			Expect(totals[0].Payer).To(Equal("Maya"))
			Expect(totals[0].Amount).To(Equal(200.0))
			Expect(totals[1].Payer).To(Equal("Evan"))
			Expect(totals[1].Count).To(Equal(2))
			Expect(totals[2].Payer).To(Equal("Ada"))
		})

		It("should truncate to the requested count", func() {
			// When
			totals, err := service.TopPayers(ctx, 2)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(totals).To(HaveLen(2))
		})

		It("should keep first-encounter order between equal totals", func() {
			// Given
			source.expenses = []*expense.Expense{
				fixture(100, expense.StatusApproved, "Meals", "First", "2026-01-10"),
				fixture(100, expense.StatusApproved, "Meals", "Second", "2026-01-11"),
			}

			// When
			totals, err := service.TopPayers(ctx, 5)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(totals[0].Payer).To(Equal("First"))
			Expect(totals[1].Payer).To(Equal("Second"))
		})

		It("should default the count when it is not positive", func() {
			// When
			totals, err := service.TopPayers(ctx, 0)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(totals).To(HaveLen(3))
		})
	})
})
