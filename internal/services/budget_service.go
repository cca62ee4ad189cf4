package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"kosht/internal/core"
	"kosht/internal/log"
)

// BudgetService creates monthly 50/30/20 plans and assembles overviews.
// All money math lives in core; this layer only loads the budget and the
// per-bucket spent totals and hands them to the entity.
type BudgetService struct {
	store BudgetStore
}

func NewBudgetService(store BudgetStore) *BudgetService {
	return &BudgetService{store: store}
}

// BucketReport is the derived state of one bucket at a reference date.
type BucketReport struct {
	Bucket      core.Bucket
	Allocated   decimal.Decimal
	Spent       decimal.Decimal
	Remaining   decimal.Decimal
	Overspent   bool
	Progress    decimal.Decimal
	SafeToSpend decimal.Decimal
}

// BudgetOverview is the full state of a budget at a reference date.
type BudgetOverview struct {
	Budget   *core.Budget
	Date     time.Time
	DaysLeft int
	Buckets  []BucketReport
}

// CreatePlan derives a 50/30/20 budget from income for the given calendar
// month and persists it. One budget per user and month; a duplicate save
// fails in the store.
func (s *BudgetService) CreatePlan(ctx context.Context, userID int64, income decimal.Decimal, year int, month time.Month) (*core.Budget, error) {
	start, end := core.MonthPeriod(year, month)
	budget, err := core.NewBudget(userID, income, start, end)
	if err != nil {
		return nil, fmt.Errorf("build budget: %w", err)
	}

	if err := s.store.SaveBudget(ctx, budget); err != nil {
		return nil, fmt.Errorf("save budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget plan created",
		log.FieldBudgetID, budget.ID,
		log.FieldUserID, userID,
		log.FieldPeriodStart, start.Format("2006-01-02"),
		log.FieldPeriodEnd, end.Format("2006-01-02"),
		"income", income.String())

	return budget, nil
}

// Overview loads the budget active at the given date, sums spending per
// bucket from the store and derives the remaining/overspent/safe-to-spend
// figures.
func (s *BudgetService) Overview(ctx context.Context, userID int64, ref time.Time) (*BudgetOverview, error) {
	budget, err := s.store.GetBudgetForDate(ctx, userID, ref)
	if err != nil {
		return nil, fmt.Errorf("load budget: %w", err)
	}

	overview := &BudgetOverview{
		Budget:   budget,
		Date:     ref,
		DaysLeft: core.DaysLeft(budget.PeriodEnd, ref),
	}

	for _, bucket := range core.Buckets {
		spent, err := s.store.SumSpent(ctx, userID, bucket, budget.PeriodStart, budget.PeriodEnd)
		if err != nil {
			return nil, fmt.Errorf("sum spent for %s: %w", bucket, err)
		}
		overview.Buckets = append(overview.Buckets, BucketReport{
			Bucket:      bucket,
			Allocated:   budget.AllocationFor(bucket),
			Spent:       spent,
			Remaining:   budget.Remaining(bucket, spent),
			Overspent:   budget.IsOverspent(bucket, spent),
			Progress:    budget.ProgressPercentage(bucket, spent),
			SafeToSpend: budget.SafeToSpend(bucket, spent, ref),
		})
	}

	return overview, nil
}
