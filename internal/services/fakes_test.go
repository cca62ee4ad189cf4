package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"kosht/internal/core"
)

var errFakeNotFound = errors.New("fake: not found")

// fakeStore is an in-memory BudgetStore/TransactionStore/UserStore.
type fakeStore struct {
	budgets  map[int64]*core.Budget
	txns     map[int64]*core.Transaction
	users    map[int64]*core.User
	nextID   int64
	sumSpent map[core.Bucket]decimal.Decimal // canned SumSpent answers
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		budgets:  make(map[int64]*core.Budget),
		txns:     make(map[int64]*core.Transaction),
		users:    make(map[int64]*core.User),
		sumSpent: make(map[core.Bucket]decimal.Decimal),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) SaveBudget(_ context.Context, b *core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	for _, existing := range f.budgets {
		if existing.UserID == b.UserID && existing.PeriodStart.Equal(b.PeriodStart) && existing.ID != b.ID {
			return errors.New("fake: duplicate budget")
		}
	}
	if b.ID == 0 {
		b.ID = f.id()
	}
	copied := *b
	f.budgets[b.ID] = &copied
	return nil
}

func (f *fakeStore) LoadBudget(_ context.Context, userID int64, periodStart time.Time) (*core.Budget, error) {
	for _, b := range f.budgets {
		if b.UserID == userID && b.PeriodStart.Equal(periodStart) {
			copied := *b
			return &copied, nil
		}
	}
	return nil, errFakeNotFound
}

func (f *fakeStore) GetBudgetForDate(_ context.Context, userID int64, date time.Time) (*core.Budget, error) {
	for _, b := range f.budgets {
		if b.UserID == userID && b.IsActive(date) {
			copied := *b
			return &copied, nil
		}
	}
	return nil, errFakeNotFound
}

func (f *fakeStore) SumSpent(_ context.Context, _ int64, bucket core.Bucket, _, _ time.Time) (decimal.Decimal, error) {
	if spent, ok := f.sumSpent[bucket]; ok {
		return spent, nil
	}
	return decimal.Zero, nil
}

func (f *fakeStore) SaveTransaction(_ context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ID == 0 {
		t.ID = f.id()
	}
	copied := *t
	f.txns[t.ID] = &copied
	return nil
}

func (f *fakeStore) GetTransaction(_ context.Context, id int64) (*core.Transaction, error) {
	t, ok := f.txns[id]
	if !ok {
		return nil, errFakeNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeStore) ListTransactions(_ context.Context, userID int64, from, to time.Time) ([]*core.Transaction, error) {
	var out []*core.Transaction
	for _, t := range f.txns {
		if t.UserID != userID || t.IsDeleted() {
			continue
		}
		if t.CreatedAt.Before(from) || t.CreatedAt.After(to.Add(24*time.Hour)) {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeStore) CreateUser(_ context.Context, u *core.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return errors.New("fake: duplicate email")
		}
	}
	u.ID = f.id()
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, id int64) (*core.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errFakeNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, errFakeNotFound
}

func (f *fakeStore) UpdateUser(_ context.Context, u *core.User) error {
	if _, ok := f.users[u.ID]; !ok {
		return errFakeNotFound
	}
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

// stubCategorizer answers with a fixed category or error.
type stubCategorizer struct {
	category core.Category
	err      error
	calls    int
}

func (s *stubCategorizer) Categorize(_ context.Context, _ string) (core.Category, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.category, nil
}
