package core

import (
	"errors"
	"testing"
	"time"
)

func groceriesTxn(t *testing.T) *Transaction {
	t.Helper()
	txn, err := NewTransaction(1, dec("250.50"), "UAH", "silpo groceries", CategoryGroceries, Expense, SourceManual)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	return txn
}

func TestNewTransactionNormalizesSign(t *testing.T) {
	exp := groceriesTxn(t)
	if !exp.Amount.Equal(dec("-250.50")) {
		t.Fatalf("expense amount = %s, want -250.50", exp.Amount)
	}
	if !exp.AbsoluteAmount().Equal(dec("250.50")) {
		t.Fatalf("absolute amount = %s, want 250.50", exp.AbsoluteAmount())
	}

	inc, err := NewTransaction(1, dec("-30000"), "UAH", "salary", CategoryIncome, Income, SourceManual)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if !inc.Amount.Equal(dec("30000")) {
		t.Fatalf("income amount = %s, want 30000", inc.Amount)
	}
}

func TestNewTransactionDefaultsCurrency(t *testing.T) {
	txn, err := NewTransaction(1, dec("10"), "", "metro ticket", CategoryTransport, Expense, SourceManual)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if txn.Currency != "UAH" {
		t.Fatalf("currency = %q, want UAH", txn.Currency)
	}
}

func TestNewTransactionNormalizesCurrency(t *testing.T) {
	txn, err := NewTransaction(1, dec("10"), " eur ", "coffee", CategoryRestaurants, Expense, SourceManual)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if txn.Currency != "EUR" {
		t.Fatalf("currency = %q, want EUR", txn.Currency)
	}
}

func TestTransactionValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"zero amount", func(x *Transaction) { x.Amount = dec("0") }, ErrZeroAmount},
		{"blank description", func(x *Transaction) { x.Description = "   " }, ErrEmptyDescription},
		{"short currency", func(x *Transaction) { x.Currency = "UA" }, ErrInvalidCurrency},
		{"long currency", func(x *Transaction) { x.Currency = "HRYV" }, ErrInvalidCurrency},
		{"lowercase currency", func(x *Transaction) { x.Currency = "uah" }, ErrInvalidCurrency},
		{"future dated", func(x *Transaction) { x.CreatedAt = time.Now().UTC().Add(time.Hour) }, ErrFutureTransaction},
		{"positive expense", func(x *Transaction) { x.Amount = dec("250.50") }, ErrAmountSignMismatch},
		{"unknown category", func(x *Transaction) { x.Category = "PETS" }, ErrInvalidCategory},
		{"unknown type", func(x *Transaction) { x.Type = "TRANSFER" }, ErrInvalidType},
		{"unknown source", func(x *Transaction) { x.Source = "CSV" }, ErrInvalidSource},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			txn := groceriesTxn(t)
			tc.mutate(txn)
			if err := txn.Validate(); !errors.Is(err, tc.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestTypeAndSourcePredicates(t *testing.T) {
	exp := groceriesTxn(t)
	if exp.IsIncome() || !exp.IsExpense() {
		t.Fatal("expense predicates wrong")
	}
	if !exp.IsManual() || exp.IsFromBankSync() {
		t.Fatal("source predicates wrong")
	}

	inc, err := NewTransaction(1, dec("100"), "UAH", "cashback", CategoryIncome, Income, SourceBankSync)
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	if !inc.IsIncome() || inc.IsExpense() {
		t.Fatal("income predicates wrong")
	}
	if inc.IsManual() || !inc.IsFromBankSync() {
		t.Fatal("bank source predicates wrong")
	}
}

func TestSoftDeleteAndRestore(t *testing.T) {
	txn := groceriesTxn(t)
	if txn.IsDeleted() {
		t.Fatal("new transaction must start active")
	}

	before := *txn
	txn.SoftDelete()
	if !txn.IsDeleted() || txn.DeletedAt == nil {
		t.Fatal("expected deleted after SoftDelete")
	}

	// Deleting again keeps it deleted, only the timestamp moves.
	first := *txn.DeletedAt
	txn.SoftDelete()
	if !txn.IsDeleted() {
		t.Fatal("second SoftDelete must keep transaction deleted")
	}
	if txn.DeletedAt.Before(first) {
		t.Fatal("second SoftDelete must not move timestamp backwards")
	}

	txn.Restore()
	if txn.IsDeleted() || txn.DeletedAt != nil {
		t.Fatal("expected active after Restore")
	}

	// Everything except DeletedAt survives the round trip.
	if txn.Amount != before.Amount || txn.Description != before.Description ||
		txn.Category != before.Category || txn.Type != before.Type ||
		txn.Source != before.Source || !txn.CreatedAt.Equal(before.CreatedAt) {
		t.Fatal("soft delete round trip changed unrelated fields")
	}
}

func TestCategorizeWithAI(t *testing.T) {
	txn := groceriesTxn(t)
	txn.CategorizeWithAI(CategoryRestaurants)
	if txn.Category != CategoryRestaurants || !txn.IsAICategorized {
		t.Fatalf("after AI categorize: category=%s ai=%v", txn.Category, txn.IsAICategorized)
	}
}

func TestManualRecategorizeClearsAIFlag(t *testing.T) {
	txn := groceriesTxn(t)
	txn.CategorizeWithAI(CategoryRestaurants)

	txn.ManuallyRecategorize(CategoryGroceries)
	if txn.Category != CategoryGroceries {
		t.Fatalf("category = %s, want GROCERIES", txn.Category)
	}
	if txn.IsAICategorized {
		t.Fatal("manual recategorize must clear the AI flag")
	}

	// Manual wins regardless of prior state, also when it was already manual.
	txn.ManuallyRecategorize(CategoryShopping)
	if txn.IsAICategorized {
		t.Fatal("AI flag must stay cleared")
	}
}
