// Package store defines the persistence ports consumed by the ledger engine
// and the HTTP layer. Implementations: storage (SQLite) and store/memory.
package store

import (
	"context"
	"errors"

	"github.com/tommikimmel/gestorGastos/internal/core"
)

// ErrNotFound is returned when a referenced document does not exist. It is
// propagated to callers untranslated.
var ErrNotFound = errors.New("document not found")

type (
	// AccountFields is a partial update for direct account edits (rename,
	// manual total override). These bypass the balance invariant on purpose;
	// balance deltas from transactions go through AdjustTotal instead.
	AccountFields struct {
		Name  *string
		Total *core.Money
	}

	CategoryFields struct {
		Name  *string
		Icon  *string
		Color *string
	}

	AccountStore interface {
		GetAccount(ctx context.Context, id string) (core.Account, error)
		ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
		InsertAccount(ctx context.Context, a core.Account) (string, error)
		UpdateAccount(ctx context.Context, id string, fields AccountFields) error
		// AdjustTotal increments the cached account total by delta (which may
		// be negative). This is the field-level increment the engine pairs
		// with every transaction mutation.
		AdjustTotal(ctx context.Context, id string, delta core.Money) error
		DeleteAccount(ctx context.Context, id string) error
	}

	CategoryStore interface {
		GetCategory(ctx context.Context, id string) (core.Category, error)
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		InsertCategory(ctx context.Context, c core.Category) (string, error)
		UpdateCategory(ctx context.Context, id string, fields CategoryFields) error
		DeleteCategory(ctx context.Context, id string) error
	}

	TransactionStore interface {
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		ListTransactions(ctx context.Context, userID string, tipo core.TransactionType) ([]core.Transaction, error)
		InsertTransaction(ctx context.Context, t core.Transaction) (string, error)
		// UpdateTransaction writes the merged record produced by the engine.
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		// DeleteTransaction is idempotent: deleting a missing id is a no-op.
		DeleteTransaction(ctx context.Context, id string) error
	}

	// Store bundles the three collections the application persists.
	Store interface {
		AccountStore
		CategoryStore
		TransactionStore
	}
)
