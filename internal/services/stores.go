package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"kosht/internal/core"
)

// Store interfaces are declared here, on the consumer side, so services
// are testable against in-memory fakes. *storage.SQLiteRepository
// satisfies all of them.

type BudgetStore interface {
	SaveBudget(ctx context.Context, b *core.Budget) error
	LoadBudget(ctx context.Context, userID int64, periodStart time.Time) (*core.Budget, error)
	GetBudgetForDate(ctx context.Context, userID int64, date time.Time) (*core.Budget, error)
	SumSpent(ctx context.Context, userID int64, bucket core.Bucket, periodStart, periodEnd time.Time) (decimal.Decimal, error)
}

type TransactionStore interface {
	SaveTransaction(ctx context.Context, t *core.Transaction) error
	GetTransaction(ctx context.Context, id int64) (*core.Transaction, error)
	ListTransactions(ctx context.Context, userID int64, from, to time.Time) ([]*core.Transaction, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *core.User) error
	GetUser(ctx context.Context, id int64) (*core.User, error)
	GetUserByEmail(ctx context.Context, email string) (*core.User, error)
	UpdateUser(ctx context.Context, u *core.User) error
}

// ErrNotOwner is returned when a caller touches a transaction that
// belongs to somebody else.
var ErrNotOwner = errors.New("transaction does not belong to this user")
