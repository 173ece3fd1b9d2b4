// Package storage implements the store ports on SQLite. Documents use UUID
// string ids; the account total lives in a single mutable column adjusted
// with relative UPDATEs so increments from independent operations compose.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tommikimmel/gestorGastos/internal/core"
	"github.com/tommikimmel/gestorGastos/internal/store"
)

const dateLayout = "2006-01-02"

type Repository struct {
	db *sql.DB
}

var _ store.Store = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
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

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	var a core.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, total_cents FROM accounts WHERE id = ?`, id,
	).Scan(&a.ID, &a.UserID, &a.Name, &a.Total.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, store.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *Repository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, total_cents FROM accounts WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := make([]core.Account, 0)
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) InsertAccount(ctx context.Context, a core.Account) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, name, total_cents) VALUES (?, ?, ?, ?)`,
		id, a.UserID, a.Name, a.Total.Cents)
	if err != nil {
		return "", fmt.Errorf("insert account: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateAccount(ctx context.Context, id string, fields store.AccountFields) error {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []any{}
	if fields.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *fields.Name)
	}
	if fields.Total != nil {
		sets = append(sets, "total_cents = ?")
		args = append(args, fields.Total.Cents)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) AdjustTotal(ctx context.Context, id string, delta core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET total_cents = total_cents + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		delta.Cents, id)
	if err != nil {
		return fmt.Errorf("adjust account total: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

func (r *Repository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, icon, color FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, store.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, icon, color FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]core.Category, 0)
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) InsertCategory(ctx context.Context, c core.Category) (string, error) {
	id := uuid.NewString()
	color := c.Color
	if color == "" {
		color = "#22c55e"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, icon, color) VALUES (?, ?, ?, ?, ?)`,
		id, c.UserID, c.Name, c.Icon, color)
	if err != nil {
		return "", fmt.Errorf("insert category: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, id string, fields store.CategoryFields) error {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []any{}
	if fields.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *fields.Name)
	}
	if fields.Icon != nil {
		sets = append(sets, "icon = ?")
		args = append(args, *fields.Icon)
	}
	if fields.Color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *fields.Color)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, tipo, amount_cents, account_id, category_id, income_category, occurred_on, description
		 FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string, tipo core.TransactionType) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, tipo, amount_cents, account_id, category_id, income_category, occurred_on, description
		 FROM transactions WHERE user_id = ? AND tipo = ? ORDER BY occurred_on DESC, created_at DESC`,
		userID, string(tipo))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) InsertTransaction(ctx context.Context, t core.Transaction) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, tipo, amount_cents, account_id, category_id, income_category, occurred_on, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, t.UserID, string(t.Type), t.Amount.Cents, t.AccountID, t.CategoryID,
		string(t.IncomeCategory), t.Date.Format(dateLayout), t.Description)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET amount_cents = ?, account_id = ?, category_id = ?, income_category = ?,
		     occurred_on = ?, description = ?, exported = 0, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		t.Amount.Cents, t.AccountID, t.CategoryID, string(t.IncomeCategory),
		t.Date.Format(dateLayout), t.Description, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// ListPendingExport returns transactions not yet mirrored to the export
// spreadsheet, oldest first. Backup path for lost broker messages.
func (r *Repository) ListPendingExport(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, tipo, amount_cents, account_id, category_id, income_category, occurred_on, description
		 FROM transactions WHERE exported = 0 ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending export: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkExported flags a transaction as mirrored to the export spreadsheet.
func (r *Repository) MarkExported(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET exported = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return requireRow(res)
}

func scanTransaction(scan func(dest ...any) error) (core.Transaction, error) {
	var (
		t          core.Transaction
		tipo       string
		incomeCat  string
		occurredOn string
	)
	if err := scan(&t.ID, &t.UserID, &tipo, &t.Amount.Cents, &t.AccountID,
		&t.CategoryID, &incomeCat, &occurredOn, &t.Description); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(tipo)
	t.IncomeCategory = core.IncomeCategory(incomeCat)
	if d, err := time.Parse(dateLayout, occurredOn); err == nil {
		t.Date = core.Date{Time: d}
	}
	return t, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
