package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kosht/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "kosht.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testUser(t *testing.T, repo *SQLiteRepository) *core.User {
	t.Helper()
	u := &core.User{
		Email:        "o@example.com",
		PasswordHash: "x",
		TrackingMode: core.TrackingManual,
	}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

func saveExpense(t *testing.T, repo *SQLiteRepository, userID int64, amount string, category core.Category, when time.Time) *core.Transaction {
	t.Helper()
	txn, err := core.NewTransaction(userID, mustDec(t, amount), "UAH", "test expense", category, core.Expense, core.SourceManual)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	txn.CreatedAt = when
	if err := repo.SaveTransaction(context.Background(), txn); err != nil {
		t.Fatalf("SaveTransaction: %v", err)
	}
	return txn
}

func TestSaveAndLoadBudget(t *testing.T) {
	repo := testRepo(t)
	u := testUser(t, repo)
	ctx := context.Background()

	start, end := core.MonthPeriod(2026, time.January)
	b, err := core.NewBudget(u.ID, mustDec(t, "30000.00"), start, end)
	if err != nil {
		t.Fatalf("NewBudget: %v", err)
	}
	if err := repo.SaveBudget(ctx, b); err != nil {
		t.Fatalf("SaveBudget: %v", err)
	}
	if b.ID == 0 {
		t.Fatal("SaveBudget must assign an id")
	}

	got, err := repo.LoadBudget(ctx, u.ID, start)
	if err != nil {
		t.Fatalf("LoadBudget: %v", err)
	}
	if !got.MonthlyIncome.Equal(b.MonthlyIncome) || !got.Needs.Equal(b.Needs) ||
		!got.Wants.Equal(b.Wants) || !got.Savings.Equal(b.Savings) {
		t.Fatalf("loaded budget differs: %+v vs %+v", got, b)
	}
	if !got.PeriodStart.Equal(start) || !got.PeriodEnd.Equal(end) {
		t.Fatalf("loaded period %s..%s, want %s..%s", got.PeriodStart, got.PeriodEnd, start, end)
	}

	mid := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	byDate, err := repo.GetBudgetForDate(ctx, u.ID, mid)
	if err != nil {
		t.Fatalf("GetBudgetForDate: %v", err)
	}
	if byDate.ID != b.ID {
		t.Fatalf("GetBudgetForDate found budget %d, want %d", byDate.ID, b.ID)
	}
}

func TestSaveBudgetRejectsDuplicatePeriod(t *testing.T) {
	repo := testRepo(t)
	u := testUser(t, repo)
	ctx := context.Background()

	start, end := core.MonthPeriod(2026, time.January)
	first, _ := core.NewBudget(u.ID, mustDec(t, "30000"), start, end)
	if err := repo.SaveBudget(ctx, first); err != nil {
		t.Fatalf("SaveBudget: %v", err)
	}

	second, _ := core.NewBudget(u.ID, mustDec(t, "40000"), start, end)
	if err := repo.SaveBudget(ctx, second); !errors.Is(err, ErrDuplicateBudget) {
		t.Fatalf("expected ErrDuplicateBudget, got %v", err)
	}
}

func TestLoadBudgetNotFound(t *testing.T) {
	repo := testRepo(t)
	u := testUser(t, repo)
	start, _ := core.MonthPeriod(2026, time.March)
	if _, err := repo.LoadBudget(context.Background(), u.ID, start); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSumSpentFiltersAggregation(t *testing.T) {
	repo := testRepo(t)
	u := testUser(t, repo)
	ctx := context.Background()

	start, end := core.MonthPeriod(2026, time.January)
	jan10 := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	jan20 := time.Date(2026, 1, 20, 9, 30, 0, 0, time.UTC)

	saveExpense(t, repo, u.ID, "1000.50", core.CategoryGroceries, jan10) // needs
	saveExpense(t, repo, u.ID, "500", core.CategoryTransport, jan20)     // needs
	saveExpense(t, repo, u.ID, "300", core.CategoryRestaurants, jan10)   // wants, not needs

	// Deleted expenses are excluded from aggregation.
	deleted := saveExpense(t, repo, u.ID, "9999", core.CategoryGroceries, jan10)
	deleted.SoftDelete()
	if err := repo.SaveTransaction(ctx, deleted); err != nil {
		t.Fatalf("SaveTransaction(deleted): %v", err)
	}

	// Income never counts as spend.
	salary, err := core.NewTransaction(u.ID, mustDec(t, "30000"), "UAH", "salary", core.CategoryIncome, core.Income, core.SourceManual)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	salary.CreatedAt = jan10
	if err := repo.SaveTransaction(ctx, salary); err != nil {
		t.Fatalf("SaveTransaction(salary): %v", err)
	}

	// Out-of-period spend is excluded.
	feb := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	saveExpense(t, repo, u.ID, "777", core.CategoryGroceries, feb)

	spent, err := repo.SumSpent(ctx, u.ID, core.Needs, start, end)
	if err != nil {
		t.Fatalf("SumSpent: %v", err)
	}
	if !spent.Equal(mustDec(t, "1500.50")) {
		t.Fatalf("needs spent = %s, want 1500.50", spent)
	}

	wants, err := repo.SumSpent(ctx, u.ID, core.Wants, start, end)
	if err != nil {
		t.Fatalf("SumSpent: %v", err)
	}
	if !wants.Equal(mustDec(t, "300")) {
		t.Fatalf("wants spent = %s, want 300", wants)
	}

	// Restoring brings the row back into the sums.
	deleted.Restore()
	if err := repo.SaveTransaction(ctx, deleted); err != nil {
		t.Fatalf("SaveTransaction(restore): %v", err)
	}
	spent, err = repo.SumSpent(ctx, u.ID, core.Needs, start, end)
	if err != nil {
		t.Fatalf("SumSpent: %v", err)
	}
	if !spent.Equal(mustDec(t, "11500.50")) {
		t.Fatalf("needs spent after restore = %s, want 11500.50", spent)
	}
}

func TestExternalIDDeduplication(t *testing.T) {
	repo := testRepo(t)
	u := testUser(t, repo)
	ctx := context.Background()

	txn, err := core.NewTransaction(u.ID, mustDec(t, "120"), "UAH", "atb market", core.CategoryGroceries, core.Expense, core.SourceBankSync)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	txn.ExternalID = "bank-abc-1"
	if err := repo.SaveTransaction(ctx, txn); err != nil {
		t.Fatalf("SaveTransaction: %v", err)
	}

	dup, err := core.NewTransaction(u.ID, mustDec(t, "120"), "UAH", "atb market", core.CategoryGroceries, core.Expense, core.SourceBankSync)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	dup.ExternalID = "bank-abc-1"
	if err := repo.SaveTransaction(ctx, dup); !errors.Is(err, ErrDuplicateExternalID) {
		t.Fatalf("expected ErrDuplicateExternalID, got %v", err)
	}

	found, err := repo.FindTransactionByExternalID(ctx, "bank-abc-1")
	if err != nil {
		t.Fatalf("FindTransactionByExternalID: %v", err)
	}
	if found.ID != txn.ID {
		t.Fatalf("found transaction %d, want %d", found.ID, txn.ID)
	}

	// Manual entries without external ids never collide.
	for i := 0; i < 2; i++ {
		m, err := core.NewTransaction(u.ID, mustDec(t, "10"), "UAH", "bus ticket", core.CategoryTransport, core.Expense, core.SourceManual)
		if err != nil {
			t.Fatalf("NewTransaction: %v", err)
		}
		if err := repo.SaveTransaction(ctx, m); err != nil {
			t.Fatalf("SaveTransaction manual #%d: %v", i, err)
		}
	}
}

func TestListTransactionsSkipsDeleted(t *testing.T) {
	repo := testRepo(t)
	u := testUser(t, repo)
	ctx := context.Background()

	start, end := core.MonthPeriod(2026, time.January)
	jan5 := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	kept := saveExpense(t, repo, u.ID, "50", core.CategoryGroceries, jan5)
	gone := saveExpense(t, repo, u.ID, "60", core.CategoryGroceries, jan5)
	gone.SoftDelete()
	if err := repo.SaveTransaction(ctx, gone); err != nil {
		t.Fatalf("SaveTransaction: %v", err)
	}

	list, err := repo.ListTransactions(ctx, u.ID, start, end)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(list) != 1 || list[0].ID != kept.ID {
		t.Fatalf("list = %d rows, want only transaction %d", len(list), kept.ID)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	repo := testRepo(t)
	testUser(t, repo)
	dup := &core.User{Email: "o@example.com", PasswordHash: "y", TrackingMode: core.TrackingManual}
	if err := repo.CreateUser(context.Background(), dup); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}
