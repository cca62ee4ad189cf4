package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"kosht/internal/core"
)

const (
	dateFormat = "2006-01-02"
	// Fixed-width UTC timestamps so lexicographic comparison in SQL
	// matches chronological order.
	timeFormat = "2006-01-02T15:04:05.000000000Z07:00"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateBudget     = errors.New("budget already exists for this user and period")
	ErrDuplicateExternalID = errors.New("transaction with this external id already exists")
	ErrDuplicateEmail      = errors.New("user with this email already exists")
)

// SQLiteRepository is the persistence collaborator: it owns row-level
// consistency (uniqueness of (user, period start) per budget, of external
// transaction ids, write serialization via SQLite) and always filters
// soft-deleted rows out of aggregation.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ---- users ----

func (r *SQLiteRepository) CreateUser(ctx context.Context, u *core.User) error {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, tracking_mode, is_premium, bank_token, bank_account_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Email, u.PasswordHash, string(u.TrackingMode), u.IsPremium,
		u.BankToken, u.BankAccountID, u.CreatedAt.Format(timeFormat), u.UpdatedAt.Format(timeFormat))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user insert id: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, tracking_mode, is_premium, bank_token, bank_account_id, created_at, updated_at
		FROM users WHERE email = ?`, email))
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (*core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, tracking_mode, is_premium, bank_token, bank_account_id, created_at, updated_at
		FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u *core.User) error {
	u.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET tracking_mode = ?, is_premium = ?, bank_token = ?, bank_account_id = ?, updated_at = ?
		WHERE id = ?`,
		string(u.TrackingMode), u.IsPremium, u.BankToken, u.BankAccountID,
		u.UpdatedAt.Format(timeFormat), u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (*core.User, error) {
	var u core.User
	var mode, createdAt, updatedAt string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &mode, &u.IsPremium,
		&u.BankToken, &u.BankAccountID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.TrackingMode = core.TrackingMode(mode)
	if u.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parse user created_at: %w", err)
	}
	if u.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return nil, fmt.Errorf("parse user updated_at: %w", err)
	}
	return &u, nil
}

// ---- budgets ----

func (r *SQLiteRepository) SaveBudget(ctx context.Context, b *core.Budget) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("validate budget: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, monthly_income, period_start, period_end, needs_allocated, wants_allocated, savings_allocated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.MonthlyIncome.String(),
		b.PeriodStart.Format(dateFormat), b.PeriodEnd.Format(dateFormat),
		b.Needs.String(), b.Wants.String(), b.Savings.String(),
		b.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBudget
		}
		return fmt.Errorf("insert budget: %w", err)
	}

	b.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("budget insert id: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"id", b.ID,
		"user_id", b.UserID,
		"period_start", b.PeriodStart.Format(dateFormat),
		"income", b.MonthlyIncome.String())

	return nil
}

func (r *SQLiteRepository) LoadBudget(ctx context.Context, userID int64, periodStart time.Time) (*core.Budget, error) {
	return r.scanBudget(r.db.QueryRowContext(ctx, `
		SELECT id, user_id, monthly_income, period_start, period_end, needs_allocated, wants_allocated, savings_allocated, created_at
		FROM budgets WHERE user_id = ? AND period_start = ?`,
		userID, periodStart.Format(dateFormat)))
}

// GetBudgetForDate finds the budget whose period contains the given date.
func (r *SQLiteRepository) GetBudgetForDate(ctx context.Context, userID int64, date time.Time) (*core.Budget, error) {
	day := date.UTC().Format(dateFormat)
	return r.scanBudget(r.db.QueryRowContext(ctx, `
		SELECT id, user_id, monthly_income, period_start, period_end, needs_allocated, wants_allocated, savings_allocated, created_at
		FROM budgets WHERE user_id = ? AND period_start <= ? AND period_end >= ?`,
		userID, day, day))
}

func (r *SQLiteRepository) scanBudget(row *sql.Row) (*core.Budget, error) {
	var b core.Budget
	var income, needs, wants, savings string
	var periodStart, periodEnd, createdAt string
	err := row.Scan(&b.ID, &b.UserID, &income, &periodStart, &periodEnd, &needs, &wants, &savings, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan budget: %w", err)
	}

	if b.MonthlyIncome, err = decimal.NewFromString(income); err != nil {
		return nil, fmt.Errorf("parse income: %w", err)
	}
	if b.Needs, err = decimal.NewFromString(needs); err != nil {
		return nil, fmt.Errorf("parse needs: %w", err)
	}
	if b.Wants, err = decimal.NewFromString(wants); err != nil {
		return nil, fmt.Errorf("parse wants: %w", err)
	}
	if b.Savings, err = decimal.NewFromString(savings); err != nil {
		return nil, fmt.Errorf("parse savings: %w", err)
	}
	if b.PeriodStart, err = time.ParseInLocation(dateFormat, periodStart, time.UTC); err != nil {
		return nil, fmt.Errorf("parse period start: %w", err)
	}
	if b.PeriodEnd, err = time.ParseInLocation(dateFormat, periodEnd, time.UTC); err != nil {
		return nil, fmt.Errorf("parse period end: %w", err)
	}
	if b.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parse budget created_at: %w", err)
	}
	return &b, nil
}

// ---- transactions ----

func (r *SQLiteRepository) SaveTransaction(ctx context.Context, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}

	var externalID any
	if t.ExternalID != "" {
		externalID = t.ExternalID
	}
	var deletedAt any
	if t.DeletedAt != nil {
		deletedAt = t.DeletedAt.UTC().Format(timeFormat)
	}

	if t.ID == 0 {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO transactions (user_id, amount, currency, description, category, transaction_type, source, is_ai_categorized, external_id, created_at, deleted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.UserID, t.Amount.String(), t.Currency, t.Description,
			string(t.Category), string(t.Type), string(t.Source),
			t.IsAICategorized, externalID, t.CreatedAt.UTC().Format(timeFormat), deletedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateExternalID
			}
			return fmt.Errorf("insert transaction: %w", err)
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("transaction insert id: %w", err)
		}
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount = ?, currency = ?, description = ?, category = ?, transaction_type = ?, source = ?, is_ai_categorized = ?, external_id = ?, deleted_at = ?
		WHERE id = ?`,
		t.Amount.String(), t.Currency, t.Description, string(t.Category),
		string(t.Type), string(t.Source), t.IsAICategorized, externalID, deletedAt, t.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateExternalID
		}
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	rows, err := r.queryTransactions(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// FindTransactionByExternalID deduplicates bank-synced rows: the worker
// checks here before ingesting a feed message.
func (r *SQLiteRepository) FindTransactionByExternalID(ctx context.Context, externalID string) (*core.Transaction, error) {
	rows, err := r.queryTransactions(ctx, `WHERE external_id = ?`, externalID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// ListTransactions returns the user's non-deleted transactions created
// within [from, to], newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, from, to time.Time) ([]*core.Transaction, error) {
	return r.queryTransactions(ctx, `
		WHERE user_id = ? AND deleted_at IS NULL AND created_at >= ? AND created_at <= ?
		ORDER BY created_at DESC`,
		userID, from.UTC().Format(timeFormat), endOfDay(to).Format(timeFormat))
}

// ListUncategorizedBankTransactions returns bank-synced rows still sitting
// in the OTHER catch-all without an AI verdict. The worker sweep retries
// these.
func (r *SQLiteRepository) ListUncategorizedBankTransactions(ctx context.Context, limit int) ([]*core.Transaction, error) {
	return r.queryTransactions(ctx, `
		WHERE source = ? AND category = ? AND is_ai_categorized = 0 AND deleted_at IS NULL
		ORDER BY created_at ASC LIMIT ?`,
		string(core.SourceBankSync), string(core.CategoryOther), limit)
}

// SumSpent sums the absolute amounts of the user's non-deleted expense
// transactions whose category maps to the bucket and whose creation time
// falls inside the period. Summation happens on decimals in Go so no
// precision is lost to SQLite float math.
func (r *SQLiteRepository) SumSpent(ctx context.Context, userID int64, bucket core.Bucket, periodStart, periodEnd time.Time) (decimal.Decimal, error) {
	categories := core.CategoriesIn(bucket)
	if len(categories) == 0 {
		return decimal.Zero, nil
	}

	placeholders := strings.Repeat("?,", len(categories))
	placeholders = placeholders[:len(placeholders)-1]

	args := []any{userID, string(core.Expense)}
	for _, c := range categories {
		args = append(args, string(c))
	}
	args = append(args, periodStart.UTC().Format(timeFormat), endOfDay(periodEnd).Format(timeFormat))

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT amount FROM transactions
		WHERE user_id = ? AND deleted_at IS NULL AND transaction_type = ?
		  AND category IN (%s) AND created_at >= ? AND created_at <= ?`, placeholders),
		args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query spent amounts: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
		}
		total = total.Add(amount.Abs())
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("iterate amounts: %w", err)
	}
	return total, nil
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, where string, args ...any) ([]*core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, amount, currency, description, category, transaction_type, source, is_ai_categorized, external_id, created_at, deleted_at
		FROM transactions `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []*core.Transaction
	for rows.Next() {
		var t core.Transaction
		var amount, category, txType, source, createdAt string
		var externalID, deleted sql.NullString
		err := rows.Scan(&t.ID, &t.UserID, &amount, &t.Currency, &t.Description,
			&category, &txType, &source, &t.IsAICategorized, &externalID, &createdAt, &deleted)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		t.Category = core.Category(category)
		t.Type = core.TransactionType(txType)
		t.Source = core.Source(source)
		t.ExternalID = externalID.String
		if t.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("parse transaction created_at: %w", err)
		}
		if deleted.Valid {
			ts, err := time.Parse(timeFormat, deleted.String)
			if err != nil {
				return nil, fmt.Errorf("parse transaction deleted_at: %w", err)
			}
			t.DeletedAt = &ts
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func endOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
