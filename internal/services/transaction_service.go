package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"kosht/internal/ai"
	"kosht/internal/core"
	"kosht/internal/log"
)

// TransactionService owns the transaction lifecycle: manual entry,
// soft delete and restore, manual recategorization and the AI
// categorization path.
type TransactionService struct {
	store           TransactionStore
	categorizer     ai.Categorizer // nil when AI is disabled
	defaultCurrency string
}

func NewTransactionService(store TransactionStore, categorizer ai.Categorizer, defaultCurrency string) *TransactionService {
	return &TransactionService{store: store, categorizer: categorizer, defaultCurrency: defaultCurrency}
}

// Create validates and persists a manual transaction. An omitted currency
// falls back to the configured default.
func (s *TransactionService) Create(ctx context.Context, userID int64, amount decimal.Decimal, currency, description string, category core.Category, txType core.TransactionType) (*core.Transaction, error) {
	if currency == "" {
		currency = s.defaultCurrency
	}
	txn, err := core.NewTransaction(userID, amount, currency, description, category, txType, core.SourceManual)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	if err := s.store.SaveTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		log.FieldTxnID, txn.ID,
		log.FieldUserID, userID,
		log.FieldCategory, string(txn.Category),
		log.FieldCurrency, txn.Currency,
		log.FieldAmount, txn.Amount.String())

	return txn, nil
}

// SoftDelete marks the transaction deleted; it disappears from all budget
// aggregation but stays recoverable.
func (s *TransactionService) SoftDelete(ctx context.Context, userID, id int64) error {
	txn, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	txn.SoftDelete()
	if err := s.store.SaveTransaction(ctx, txn); err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction soft-deleted", log.FieldTxnID, id, log.FieldUserID, userID)
	return nil
}

// Restore reverses a soft delete.
func (s *TransactionService) Restore(ctx context.Context, userID, id int64) error {
	txn, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	txn.Restore()
	if err := s.store.SaveTransaction(ctx, txn); err != nil {
		return fmt.Errorf("save transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction restored", log.FieldTxnID, id, log.FieldUserID, userID)
	return nil
}

// Recategorize applies a user-chosen category. Manual always wins: the
// AI flag is cleared.
func (s *TransactionService) Recategorize(ctx context.Context, userID, id int64, category core.Category) (*core.Transaction, error) {
	if !category.IsValid() {
		return nil, core.ErrInvalidCategory
	}
	txn, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	txn.ManuallyRecategorize(category)
	if err := s.store.SaveTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction recategorized",
		log.FieldTxnID, id, log.FieldUserID, userID, log.FieldCategory, string(category))
	return txn, nil
}

// AutoCategorize asks the AI categorizer for a verdict on the
// transaction's description and applies it with the AI flag set. A nil
// categorizer leaves the transaction untouched.
func (s *TransactionService) AutoCategorize(ctx context.Context, userID, id int64) (*core.Transaction, error) {
	txn, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if s.categorizer == nil {
		return txn, nil
	}

	predicted, err := s.categorizer.Categorize(ctx, txn.Description)
	if err != nil {
		return nil, fmt.Errorf("categorize: %w", err)
	}
	txn.CategorizeWithAI(predicted)
	if err := s.store.SaveTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction AI-categorized",
		log.FieldTxnID, id, log.FieldUserID, userID, log.FieldCategory, string(predicted))
	return txn, nil
}

// List returns the user's non-deleted transactions in [from, to].
func (s *TransactionService) List(ctx context.Context, userID int64, from, to time.Time) ([]*core.Transaction, error) {
	txns, err := s.store.ListTransactions(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

func (s *TransactionService) owned(ctx context.Context, userID, id int64) (*core.Transaction, error) {
	txn, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if txn.UserID != userID {
		return nil, ErrNotOwner
	}
	return txn, nil
}
