package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveIncome  = errors.New("monthly income must be positive")
	ErrNegativeAllocation = errors.New("allocation must not be negative")
	ErrAllocationMismatch = errors.New("allocations must sum to monthly income")
	ErrInvalidPeriod      = errors.New("period end must be after period start")
)

// allocationTolerance is how far the allocation sum may drift from income
// before the budget is rejected. Covers rounding of the three shares.
var allocationTolerance = decimal.NewFromInt(1)

// Budget is one month's 50/30/20 plan. It holds the three allocation
// amounts and derives remaining budget, overspend status and safe daily
// spend from spent totals supplied by the caller. It never reaches into
// the transaction store itself.
type Budget struct {
	ID            int64
	UserID        int64
	MonthlyIncome decimal.Decimal
	PeriodStart   time.Time
	PeriodEnd     time.Time
	Needs         decimal.Decimal
	Wants         decimal.Decimal
	Savings       decimal.Decimal
	CreatedAt     time.Time
}

// SplitIncome derives the 50/30/20 allocation from a monthly income,
// each share rounded half-up to two decimals.
func SplitIncome(income decimal.Decimal) (needs, wants, savings decimal.Decimal) {
	needs = income.Mul(decimal.NewFromFloat(0.50)).Round(2)
	wants = income.Mul(decimal.NewFromFloat(0.30)).Round(2)
	savings = income.Mul(decimal.NewFromFloat(0.20)).Round(2)
	return needs, wants, savings
}

// NewBudget builds a budget for the given period with allocations derived
// from income via the 50/30/20 rule. This factory is the invariant
// enforcement point: no Budget with violated invariants is constructible
// through it.
func NewBudget(userID int64, income decimal.Decimal, periodStart, periodEnd time.Time) (*Budget, error) {
	needs, wants, savings := SplitIncome(income)
	b := &Budget{
		UserID:        userID,
		MonthlyIncome: income,
		PeriodStart:   truncateToDay(periodStart),
		PeriodEnd:     truncateToDay(periodEnd),
		Needs:         needs,
		Wants:         wants,
		Savings:       savings,
		CreatedAt:     time.Now().UTC(),
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the budget invariants. Storage re-runs it before
// persisting rows reconstructed from external input.
func (b *Budget) Validate() error {
	if !b.MonthlyIncome.IsPositive() {
		return ErrNonPositiveIncome
	}
	for _, a := range []decimal.Decimal{b.Needs, b.Wants, b.Savings} {
		if a.IsNegative() {
			return ErrNegativeAllocation
		}
	}
	sum := b.Needs.Add(b.Wants).Add(b.Savings)
	if sum.Sub(b.MonthlyIncome).Abs().GreaterThan(allocationTolerance) {
		return fmt.Errorf("%w: allocated %s of %s", ErrAllocationMismatch, sum, b.MonthlyIncome)
	}
	if !b.PeriodEnd.After(b.PeriodStart) {
		return ErrInvalidPeriod
	}
	return nil
}

// AllocationFor returns the stored allocation for the bucket.
func (b *Budget) AllocationFor(bucket Bucket) decimal.Decimal {
	switch bucket {
	case Needs:
		return b.Needs
	case Wants:
		return b.Wants
	case Savings:
		return b.Savings
	}
	return decimal.Zero
}

// Remaining is allocation minus spent, rounded to two decimals. Negative
// when the bucket is overspent.
func (b *Budget) Remaining(bucket Bucket, spent decimal.Decimal) decimal.Decimal {
	return b.AllocationFor(bucket).Sub(spent).Round(2)
}

// IsOverspent reports whether more than the allocation was spent.
func (b *Budget) IsOverspent(bucket Bucket, spent decimal.Decimal) bool {
	return b.Remaining(bucket, spent).IsNegative()
}

// ProgressPercentage is spent over allocation in percent, rounded to two
// decimals. May exceed 100. Zero allocation yields 0 rather than a
// division by zero.
func (b *Budget) ProgressPercentage(bucket Bucket, spent decimal.Decimal) decimal.Decimal {
	allocated := b.AllocationFor(bucket)
	if allocated.IsZero() {
		return decimal.Zero
	}
	return spent.Div(allocated).Mul(decimal.NewFromInt(100)).Round(2)
}

// IsActive reports whether ref falls within the budget period, inclusive
// on both ends.
func (b *Budget) IsActive(ref time.Time) bool {
	d := truncateToDay(ref)
	return !d.Before(b.PeriodStart) && !d.After(b.PeriodEnd)
}

// SafeToSpend is the constant daily allowance that exhausts the remaining
// allocation exactly at period end. It is zero once the period is over,
// the bucket is exhausted or overspent, or no days are left; it is never
// negative.
func (b *Budget) SafeToSpend(bucket Bucket, spent decimal.Decimal, ref time.Time) decimal.Decimal {
	if truncateToDay(ref).After(b.PeriodEnd) {
		return decimal.Zero
	}
	remaining := b.Remaining(bucket, spent)
	if !remaining.IsPositive() {
		return decimal.Zero
	}
	daysLeft := DaysLeft(b.PeriodEnd, ref)
	if daysLeft <= 0 {
		return decimal.Zero
	}
	return remaining.Div(decimal.NewFromInt(int64(daysLeft))).Round(2)
}

// DaysInPeriod is the inclusive day count of the whole period.
func (b *Budget) DaysInPeriod() int {
	return DaysLeft(b.PeriodEnd, b.PeriodStart)
}
