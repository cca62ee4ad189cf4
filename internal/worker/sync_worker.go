package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"kosht/internal/ai"
	"kosht/internal/amqp"
	"kosht/internal/core"
	"kosht/internal/log"
	"kosht/internal/storage"
)

// TransactionStore is the slice of storage the worker needs.
// *storage.SQLiteRepository satisfies it.
type TransactionStore interface {
	SaveTransaction(ctx context.Context, t *core.Transaction) error
	FindTransactionByExternalID(ctx context.Context, externalID string) (*core.Transaction, error)
	ListUncategorizedBankTransactions(ctx context.Context, limit int) ([]*core.Transaction, error)
}

// SyncWorker ingests bank feed messages into the transaction store and
// periodically retries AI categorization for rows the model never saw.
type SyncWorker struct {
	store           TransactionStore
	categorizer     ai.Categorizer // nil when AI is disabled
	batchSize       int
	defaultCurrency string
}

func NewSyncWorker(store TransactionStore, categorizer ai.Categorizer, batchSize int, defaultCurrency string) *SyncWorker {
	return &SyncWorker{
		store:           store,
		categorizer:     categorizer,
		batchSize:       batchSize,
		defaultCurrency: defaultCurrency,
	}
}

// HandleBankTransaction processes one bank feed message. Redeliveries and
// permanently malformed messages are acknowledged without effect; only
// store failures propagate so the delivery gets requeued.
func (w *SyncWorker) HandleBankTransaction(ctx context.Context, msg *amqp.BankTransactionMessage) error {
	slog.InfoContext(ctx, "Processing bank transaction message",
		"message_id", msg.MessageID,
		log.FieldExternalID, msg.ExternalID,
		log.FieldUserID, msg.UserID)

	existing, err := w.store.FindTransactionByExternalID(ctx, msg.ExternalID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("check external id: %w", err)
	}
	if existing != nil {
		slog.InfoContext(ctx, "Duplicate bank transaction, skipping",
			log.FieldExternalID, msg.ExternalID,
			log.FieldTxnID, existing.ID)
		return nil
	}

	txn, err := w.buildTransaction(ctx, msg)
	if err != nil {
		// A malformed message never becomes valid on redelivery.
		slog.ErrorContext(ctx, "Dropping malformed bank transaction message",
			"message_id", msg.MessageID,
			log.FieldExternalID, msg.ExternalID,
			log.FieldError, err)
		return nil
	}

	if err := w.store.SaveTransaction(ctx, txn); err != nil {
		if errors.Is(err, storage.ErrDuplicateExternalID) {
			slog.InfoContext(ctx, "Bank transaction ingested concurrently, skipping",
				log.FieldExternalID, msg.ExternalID)
			return nil
		}
		return fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Bank transaction ingested",
		log.FieldTxnID, txn.ID,
		log.FieldExternalID, txn.ExternalID,
		log.FieldCategory, string(txn.Category),
		log.FieldAmount, txn.Amount.String())

	return nil
}

func (w *SyncWorker) buildTransaction(ctx context.Context, msg *amqp.BankTransactionMessage) (*core.Transaction, error) {
	amount, err := decimal.NewFromString(msg.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", msg.Amount, err)
	}

	txType := core.Expense
	category := core.CategoryOther
	if amount.IsPositive() {
		txType = core.Income
		category = core.CategoryIncome
	}

	aiCategorized := false
	if txType == core.Expense && w.categorizer != nil {
		predicted, err := w.categorizer.Categorize(ctx, msg.Description)
		if err != nil {
			// Leave the row in OTHER; the sweep retries it later.
			slog.WarnContext(ctx, "AI categorization failed, falling back to OTHER",
				log.FieldExternalID, msg.ExternalID,
				log.FieldError, err)
		} else {
			category = predicted
			aiCategorized = true
		}
	}

	currency := msg.Currency
	if currency == "" {
		currency = w.defaultCurrency
	}

	txn, err := core.NewTransaction(msg.UserID, amount, currency, msg.Description, category, txType, core.SourceBankSync)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	txn.ExternalID = msg.ExternalID
	txn.IsAICategorized = aiCategorized
	if !msg.OccurredAt.IsZero() {
		txn.CreatedAt = msg.OccurredAt.UTC()
		// Re-check: a future-dated message stays invalid on every
		// redelivery, so it must be dropped, not requeued.
		if err := txn.Validate(); err != nil {
			return nil, fmt.Errorf("validate dated transaction: %w", err)
		}
	}
	return txn, nil
}

// RecategorizeSweep retries AI categorization for bank rows still sitting
// in the OTHER catch-all. Per-row failures are logged and skipped so one
// bad row never stalls the batch.
func (w *SyncWorker) RecategorizeSweep(ctx context.Context) error {
	if w.categorizer == nil {
		return nil
	}

	pending, err := w.store.ListUncategorizedBankTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list uncategorized transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Retrying AI categorization", "count", len(pending))

	categorized := 0
	for _, txn := range pending {
		predicted, err := w.categorizer.Categorize(ctx, txn.Description)
		if err != nil {
			slog.WarnContext(ctx, "AI categorization failed",
				log.FieldTxnID, txn.ID, log.FieldError, err)
			continue
		}
		txn.CategorizeWithAI(predicted)
		if err := w.store.SaveTransaction(ctx, txn); err != nil {
			slog.ErrorContext(ctx, "Failed to save recategorized transaction",
				log.FieldTxnID, txn.ID, log.FieldError, err)
			continue
		}
		categorized++
	}

	slog.InfoContext(ctx, "Categorization sweep completed",
		"total", len(pending),
		"categorized", categorized)

	return nil
}
