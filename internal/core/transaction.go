package core

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"

	SourceManual   Source = "MANUAL"
	SourceBankSync Source = "BANK_SYNC"

	// DefaultCurrency is assumed when a transaction arrives without one.
	DefaultCurrency = "UAH"
)

type (
	// TransactionType says which way the money moved.
	TransactionType string

	// Source says how the transaction entered the system.
	Source string
)

var (
	ErrZeroAmount         = errors.New("transaction amount must not be zero")
	ErrEmptyDescription   = errors.New("transaction description must not be empty")
	ErrInvalidCurrency    = errors.New("currency must be a 3-letter ISO code")
	ErrFutureTransaction  = errors.New("transaction must not be dated in the future")
	ErrAmountSignMismatch = errors.New("amount sign does not match transaction type")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidSource      = errors.New("invalid transaction source")
)

// Transaction is one money movement. The sign of Amount encodes direction:
// income is positive, expense negative. Transactions are soft-deleted,
// never destroyed, so financial history stays recoverable.
type Transaction struct {
	ID              int64
	UserID          int64
	Amount          decimal.Decimal
	Currency        string
	Description     string
	Category        Category
	Type            TransactionType
	Source          Source
	IsAICategorized bool
	// ExternalID identifies the row in the upstream bank system and
	// deduplicates synced transactions. Empty for manual entries.
	ExternalID string
	CreatedAt  time.Time
	DeletedAt  *time.Time
}

// NewTransaction builds a validated transaction. The amount may be given
// unsigned; it is normalized so that expenses are negative and income
// positive. An empty currency falls back to DefaultCurrency.
func NewTransaction(userID int64, amount decimal.Decimal, currency, description string, category Category, txType TransactionType, source Source) (*Transaction, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	t := &Transaction{
		UserID:      userID,
		Amount:      normalizeAmount(amount, txType),
		Currency:    strings.ToUpper(strings.TrimSpace(currency)),
		Description: strings.TrimSpace(description),
		Category:    category,
		Type:        txType,
		Source:      source,
		CreatedAt:   time.Now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func normalizeAmount(amount decimal.Decimal, txType TransactionType) decimal.Decimal {
	switch txType {
	case Expense:
		return amount.Abs().Neg()
	case Income:
		return amount.Abs()
	}
	return amount
}

// Validate checks the transaction invariants.
func (t *Transaction) Validate() error {
	switch t.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	switch t.Source {
	case SourceManual, SourceBankSync:
	default:
		return ErrInvalidSource
	}
	if t.Amount.IsZero() {
		return ErrZeroAmount
	}
	if t.IsIncome() && t.Amount.IsNegative() || t.IsExpense() && t.Amount.IsPositive() {
		return ErrAmountSignMismatch
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if !validCurrency(t.Currency) {
		return ErrInvalidCurrency
	}
	if !t.Category.IsValid() {
		return ErrInvalidCategory
	}
	if t.CreatedAt.After(time.Now().UTC()) {
		return ErrFutureTransaction
	}
	return nil
}

func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func (t *Transaction) IsIncome() bool {
	return t.Type == Income
}

func (t *Transaction) IsExpense() bool {
	return t.Type == Expense
}

func (t *Transaction) IsFromBankSync() bool {
	return t.Source == SourceBankSync
}

func (t *Transaction) IsManual() bool {
	return t.Source == SourceManual
}

// SoftDelete marks the transaction as logically removed. A deleted
// transaction is excluded from all budget aggregation but kept for audit.
func (t *Transaction) SoftDelete() {
	now := time.Now().UTC()
	t.DeletedAt = &now
}

// Restore reverses a soft delete.
func (t *Transaction) Restore() {
	t.DeletedAt = nil
}

func (t *Transaction) IsDeleted() bool {
	return t.DeletedAt != nil
}

// AbsoluteAmount is the magnitude of the movement regardless of direction.
func (t *Transaction) AbsoluteAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// CategorizeWithAI applies a model-predicted category and flags the
// transaction as AI-categorized.
func (t *Transaction) CategorizeWithAI(predicted Category) {
	t.Category = predicted
	t.IsAICategorized = true
}

// ManuallyRecategorize applies a user-chosen category. A manual action
// always clears the AI flag: the most recent categorization wins and
// manual is trusted over AI.
func (t *Transaction) ManuallyRecategorize(chosen Category) {
	t.Category = chosen
	t.IsAICategorized = false
}
