// Package ledger implements the balance-consistency engine: every transaction
// mutation is paired with exactly the account-total delta(s) needed to keep
// each account's cached total equal to its initial total plus the net effect
// of all transactions referencing it.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tommikimmel/gestorGastos/internal/core"
	"github.com/tommikimmel/gestorGastos/internal/store"
)

// Event operations published after successful mutations.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// EventPublisher receives a notification after each successful mutation.
// Publishing is best-effort: a broker failure never fails the operation.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, op string, t core.Transaction) error
}

type Engine struct {
	accounts store.AccountStore
	txs      store.TransactionStore
	events   EventPublisher
}

// NewEngine wires the engine to its stores. events may be nil.
func NewEngine(accounts store.AccountStore, txs store.TransactionStore, events EventPublisher) *Engine {
	return &Engine{accounts: accounts, txs: txs, events: events}
}

type (
	IncomeInput struct {
		UserID      string
		Amount      core.Money
		AccountID   string
		Date        core.Date
		Description string
		Category    core.IncomeCategory
	}

	ExpenseInput struct {
		UserID      string
		Amount      core.Money
		AccountID   string
		CategoryID  string
		Date        core.Date
		Description string
	}

	// TransactionPatch carries partial edits. Nil fields keep the previous
	// value; an empty AccountID or CategoryID also keeps the previous value,
	// mirroring the merge semantics the UI relies on.
	TransactionPatch struct {
		Amount         *core.Money
		AccountID      *string
		CategoryID     *string
		IncomeCategory *core.IncomeCategory
		Date           *core.Date
		Description    *string
	}
)

// CreateIncome records an income and credits the referenced account. Incomes
// are unconstrained increases: there is no upper bound check. An empty
// AccountID records the income with no account effect.
func (e *Engine) CreateIncome(ctx context.Context, in IncomeInput) (string, error) {
	t := core.Transaction{
		UserID:         in.UserID,
		Type:           core.TypeIncome,
		Amount:         in.Amount,
		AccountID:      in.AccountID,
		Date:           in.Date,
		Description:    in.Description,
		IncomeCategory: core.NormalizeIncomeCategory(in.Category),
	}

	id, err := e.txs.InsertTransaction(ctx, t)
	if err != nil {
		return "", fmt.Errorf("insert income: %w", err)
	}
	t.ID = id

	if in.AccountID != "" {
		if err := e.accounts.AdjustTotal(ctx, in.AccountID, in.Amount); err != nil {
			return "", fmt.Errorf("credit account %s: %w", in.AccountID, err)
		}
	}

	slog.InfoContext(ctx, "Income recorded",
		"id", id,
		"account_id", in.AccountID,
		"amount_cents", in.Amount.Cents,
		"category", t.IncomeCategory)

	e.publish(ctx, OpCreated, t)
	return id, nil
}

// CreateExpense validates, records an expense and debits the account. All
// checks run before any write: on a validation failure nothing is persisted.
func (e *Engine) CreateExpense(ctx context.Context, in ExpenseInput) (string, error) {
	if in.AccountID == "" || in.CategoryID == "" {
		return "", core.ErrAccountCategoryRequired
	}
	if in.Amount.Cents <= 0 {
		return "", core.ErrAmountNotPositive
	}

	// Fresh read: the sufficiency check must see the current total.
	acct, err := e.accounts.GetAccount(ctx, in.AccountID)
	if err != nil {
		return "", fmt.Errorf("read account %s: %w", in.AccountID, err)
	}
	if in.Amount.Cents > acct.Total.Cents {
		return "", core.ErrInsufficientBalance
	}

	t := core.Transaction{
		UserID:      in.UserID,
		Type:        core.TypeExpense,
		Amount:      in.Amount,
		AccountID:   in.AccountID,
		CategoryID:  in.CategoryID,
		Date:        in.Date,
		Description: in.Description,
	}

	id, err := e.txs.InsertTransaction(ctx, t)
	if err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}
	t.ID = id

	if err := e.accounts.AdjustTotal(ctx, in.AccountID, core.Money{Cents: -in.Amount.Cents}); err != nil {
		return "", fmt.Errorf("debit account %s: %w", in.AccountID, err)
	}

	slog.InfoContext(ctx, "Expense recorded",
		"id", id,
		"account_id", in.AccountID,
		"category_id", in.CategoryID,
		"amount_cents", in.Amount.Cents)

	e.publish(ctx, OpCreated, t)
	return id, nil
}

// UpdateIncome merges the patch into an existing income and reconciles the
// affected account totals. Editing a missing id is a silent no-op. Income
// edits carry no balance-sufficiency check.
func (e *Engine) UpdateIncome(ctx context.Context, id string, patch TransactionPatch) error {
	prev, err := e.txs.GetTransaction(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read income %s: %w", id, err)
	}

	merged := mergePatch(prev, patch)

	if err := e.txs.UpdateTransaction(ctx, merged); err != nil {
		return fmt.Errorf("update income %s: %w", id, err)
	}

	if prev.AccountID == merged.AccountID {
		delta := merged.Amount.Cents - prev.Amount.Cents
		if prev.AccountID != "" && delta != 0 {
			if err := e.accounts.AdjustTotal(ctx, prev.AccountID, core.Money{Cents: delta}); err != nil {
				return fmt.Errorf("adjust account %s: %w", prev.AccountID, err)
			}
		}
	} else {
		if prev.AccountID != "" {
			if err := e.accounts.AdjustTotal(ctx, prev.AccountID, core.Money{Cents: -prev.Amount.Cents}); err != nil {
				return fmt.Errorf("debit previous account %s: %w", prev.AccountID, err)
			}
		}
		if merged.AccountID != "" {
			if err := e.accounts.AdjustTotal(ctx, merged.AccountID, merged.Amount); err != nil {
				return fmt.Errorf("credit account %s: %w", merged.AccountID, err)
			}
		}
	}

	slog.InfoContext(ctx, "Income updated",
		"id", id,
		"account_id", merged.AccountID,
		"amount_cents", merged.Amount.Cents)

	e.publish(ctx, OpUpdated, merged)
	return nil
}

// UpdateExpense merges the patch into an existing expense, enforcing the
// non-negative-balance policy before committing. The sufficiency check for
// the charged account happens before the transaction write so a failing edit
// is never persisted; a refund to the old account is unconditional.
func (e *Engine) UpdateExpense(ctx context.Context, id string, patch TransactionPatch) error {
	prev, err := e.txs.GetTransaction(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read expense %s: %w", id, err)
	}

	merged := mergePatch(prev, patch)
	if merged.Amount.Cents <= 0 {
		return core.ErrAmountNotPositive
	}

	if prev.AccountID == merged.AccountID {
		if prev.AccountID != "" {
			delta := merged.Amount.Cents - prev.Amount.Cents
			if delta > 0 {
				acct, err := e.accounts.GetAccount(ctx, prev.AccountID)
				if err != nil {
					return fmt.Errorf("read account %s: %w", prev.AccountID, err)
				}
				if delta > acct.Total.Cents {
					return core.ErrInsufficientBalance
				}
			}
			if err := e.txs.UpdateTransaction(ctx, merged); err != nil {
				return fmt.Errorf("update expense %s: %w", id, err)
			}
			if delta != 0 {
				if err := e.accounts.AdjustTotal(ctx, prev.AccountID, core.Money{Cents: -delta}); err != nil {
					return fmt.Errorf("adjust account %s: %w", prev.AccountID, err)
				}
			}
		} else {
			if err := e.txs.UpdateTransaction(ctx, merged); err != nil {
				return fmt.Errorf("update expense %s: %w", id, err)
			}
		}
	} else {
		// Account changed: validate the new account before committing, then
		// refund the old account and charge the new one.
		if merged.AccountID != "" {
			acct, err := e.accounts.GetAccount(ctx, merged.AccountID)
			if err != nil {
				return fmt.Errorf("read account %s: %w", merged.AccountID, err)
			}
			if merged.Amount.Cents > acct.Total.Cents {
				return core.ErrInsufficientNewBalance
			}
		}
		if err := e.txs.UpdateTransaction(ctx, merged); err != nil {
			return fmt.Errorf("update expense %s: %w", id, err)
		}
		if prev.AccountID != "" {
			if err := e.accounts.AdjustTotal(ctx, prev.AccountID, prev.Amount); err != nil {
				return fmt.Errorf("refund previous account %s: %w", prev.AccountID, err)
			}
		}
		if merged.AccountID != "" {
			if err := e.accounts.AdjustTotal(ctx, merged.AccountID, core.Money{Cents: -merged.Amount.Cents}); err != nil {
				return fmt.Errorf("charge account %s: %w", merged.AccountID, err)
			}
		}
	}

	slog.InfoContext(ctx, "Expense updated",
		"id", id,
		"account_id", merged.AccountID,
		"amount_cents", merged.Amount.Cents)

	e.publish(ctx, OpUpdated, merged)
	return nil
}

// DeleteIncome reverses the income's account credit and deletes the record.
// Deleting a missing id is an idempotent no-op.
func (e *Engine) DeleteIncome(ctx context.Context, id string) error {
	return e.deleteTransaction(ctx, id, -1)
}

// DeleteExpense refunds the expense's amount to its account and deletes the
// record. Deleting a missing id is an idempotent no-op.
func (e *Engine) DeleteExpense(ctx context.Context, id string) error {
	return e.deleteTransaction(ctx, id, 1)
}

// deleteTransaction applies sign*amount to the account (income reversals
// subtract, expense reversals add back), then deletes the record.
func (e *Engine) deleteTransaction(ctx context.Context, id string, sign int64) error {
	t, err := e.txs.GetTransaction(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Nothing to reverse; the delete below stays idempotent.
	case err != nil:
		return fmt.Errorf("read transaction %s: %w", id, err)
	default:
		if t.AccountID != "" && t.Amount.Cents != 0 {
			delta := core.Money{Cents: sign * t.Amount.Cents}
			if err := e.accounts.AdjustTotal(ctx, t.AccountID, delta); err != nil {
				return fmt.Errorf("reverse account %s: %w", t.AccountID, err)
			}
		}
	}

	if err := e.txs.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}

	if t.ID != "" {
		slog.InfoContext(ctx, "Transaction deleted",
			"id", id,
			"type", t.Type,
			"account_id", t.AccountID,
			"amount_cents", t.Amount.Cents)
		e.publish(ctx, OpDeleted, t)
	}
	return nil
}

// ListIncomes returns all of a user's income records.
func (e *Engine) ListIncomes(ctx context.Context, userID string) ([]core.Transaction, error) {
	return e.txs.ListTransactions(ctx, userID, core.TypeIncome)
}

// ListExpenses returns all of a user's expense records.
func (e *Engine) ListExpenses(ctx context.Context, userID string) ([]core.Transaction, error) {
	return e.txs.ListTransactions(ctx, userID, core.TypeExpense)
}

func mergePatch(prev core.Transaction, patch TransactionPatch) core.Transaction {
	merged := prev
	if patch.Amount != nil {
		merged.Amount = *patch.Amount
	}
	if patch.AccountID != nil && *patch.AccountID != "" {
		merged.AccountID = *patch.AccountID
	}
	if patch.CategoryID != nil && *patch.CategoryID != "" {
		merged.CategoryID = *patch.CategoryID
	}
	if patch.IncomeCategory != nil {
		merged.IncomeCategory = core.NormalizeIncomeCategory(*patch.IncomeCategory)
	}
	if patch.Date != nil {
		merged.Date = *patch.Date
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	return merged
}

func (e *Engine) publish(ctx context.Context, op string, t core.Transaction) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishTransactionEvent(ctx, op, t); err != nil {
		// The mutation already committed; the periodic export scan will
		// pick the record up if this message is lost.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"op", op, "id", t.ID, "error", err)
	}
}
