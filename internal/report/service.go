package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/singleflight"

	"github.com/expenseflow/expenseflow/internal/expense"
)

// ExpenseSource supplies the full expense collection. Aggregates are
// never persisted; every report is recomputed from this scan.
type ExpenseSource interface {
	All(ctx context.Context) ([]*expense.Expense, error)
}

// Service derives reporting figures on demand. Identical concurrent
// recomputations share one store scan through singleflight, which
// changes nothing about the always-recompute contract.
type Service struct {
	source ExpenseSource
	group  singleflight.Group
	logger *slog.Logger
}

func NewService(source ExpenseSource, logger *slog.Logger) *Service {
	return &Service{
		source: source,
		logger: logger,
	}
}

func (s *Service) load(ctx context.Context, key string) ([]*expense.Expense, error) {
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.source.All(ctx)
	})
	if err != nil {
		s.logger.Error("report scan failed", "error", err)
		return nil, err
	}
	return v.([]*expense.Expense), nil
}

// Summary returns counts per status and the grand total.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	expenses, err := s.load(ctx, "summary")
	if err != nil {
		return nil, err
	}

	summary := &Summary{TotalCount: len(expenses)}
	for _, e := range expenses {
		summary.TotalAmount += e.Amount
		switch e.Status {
		case expense.StatusApproved:
			summary.ApprovedCount++
		case expense.StatusRejected:
			summary.RejectedCount++
		default:
			summary.PendingCount++
		}
	}
	return summary, nil
}

// ByCategory groups spending per category in first-encounter order.
func (s *Service) ByCategory(ctx context.Context) ([]CategoryTotal, error) {
	expenses, err := s.load(ctx, "by-category")
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	totals := make([]CategoryTotal, 0)
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(totals)
			index[e.Category] = i
			totals = append(totals, CategoryTotal{Category: e.Category})
		}
		totals[i].Amount += e.Amount
		totals[i].Count++
	}
	return totals, nil
}

// ByDate groups spending per expense date regardless of status, oldest
// date first.
func (s *Service) ByDate(ctx context.Context) ([]DateTotal, error) {
	expenses, err := s.load(ctx, "by-date")
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	totals := make([]DateTotal, 0)
	for _, e := range expenses {
		day := e.ExpenseDate.Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(totals)
			index[day] = i
			totals = append(totals, DateTotal{Date: day})
		}
		totals[i].Amount += e.Amount
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date < totals[j].Date })
	return totals, nil
}

// TopPayers returns the n payers with the highest total amount. The sort
// is stable, so payers with equal totals keep their first-encounter
// order.
func (s *Service) TopPayers(ctx context.Context, n int) ([]PayerTotal, error) {
	if n <= 0 {
		n = 5
	}

	expenses, err := s.load(ctx, fmt.Sprintf("top-payers-%d", n))
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	totals := make([]PayerTotal, 0)
	for _, e := range expenses {
		i, ok := index[e.PaidBy]
		if !ok {
			i = len(totals)
			index[e.PaidBy] = i
			totals = append(totals, PayerTotal{Payer: e.PaidBy})
		}
		totals[i].Amount += e.Amount
		totals[i].Count++
	}

	sort.SliceStable(totals, func(i, j int) bool { return totals[i].Amount > totals[j].Amount })
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals, nil
}
