package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tommikimmel/gestorGastos/internal/core"
	"github.com/tommikimmel/gestorGastos/internal/store"
	"github.com/tommikimmel/gestorGastos/internal/store/memory"
)

const testUser = "user-1"

func newTestEngine(t *testing.T) (*Engine, *memory.Store) {
	t.Helper()
	st := memory.New()
	return NewEngine(st, st, nil), st
}

func mustAccount(t *testing.T, st *memory.Store, name string, cents int64) string {
	t.Helper()
	id, err := st.InsertAccount(context.Background(), core.Account{
		UserID: testUser,
		Name:   name,
		Total:  core.Money{Cents: cents},
	})
	if err != nil {
		t.Fatalf("insert account: %v", err)
	}
	return id
}

func mustCategory(t *testing.T, st *memory.Store, name string) string {
	t.Helper()
	id, err := st.InsertCategory(context.Background(), core.Category{
		UserID: testUser,
		Name:   name,
		Color:  "#22c55e",
	})
	if err != nil {
		t.Fatalf("insert category: %v", err)
	}
	return id
}

func accountTotal(t *testing.T, st *memory.Store, id string) int64 {
	t.Helper()
	a, err := st.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return a.Total.Cents
}

func TestCreateIncomeCreditsAccount(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	acct := mustAccount(t, st, "Banco", 10_000)

	id, err := eng.CreateIncome(ctx, IncomeInput{
		UserID:      testUser,
		Amount:      core.Money{Cents: 2_500},
		AccountID:   acct,
		Date:        core.NewDate(2026, 3, 1),
		Description: "nómina",
		Category:    core.IncomeSalarios,
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	if id == "" {
		t.Fatal("expected a transaction id")
	}
	if got := accountTotal(t, st, acct); got != 12_500 {
		t.Fatalf("expected total 12500, got %d", got)
	}
}

func TestCreateIncomeWithoutAccount(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	id, err := eng.CreateIncome(ctx, IncomeInput{
		UserID: testUser,
		Amount: core.Money{Cents: 500},
		Date:   core.NewDate(2026, 3, 1),
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	tx, err := st.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if tx.AccountID != "" {
		t.Fatalf("expected no account reference, got %q", tx.AccountID)
	}
	if tx.IncomeCategory != core.IncomeOtros {
		t.Fatalf("expected OTROS default, got %s", tx.IncomeCategory)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	acct := mustAccount(t, st, "Efectivo", 100_000) // 1000.00
	cat := mustCategory(t, st, "Comida")

	cases := []struct {
		name string
		in   ExpenseInput
		want error
	}{
		{
			name: "missing account",
			in:   ExpenseInput{UserID: testUser, Amount: core.Money{Cents: 100}, CategoryID: cat},
			want: core.ErrAccountCategoryRequired,
		},
		{
			name: "missing category",
			in:   ExpenseInput{UserID: testUser, Amount: core.Money{Cents: 100}, AccountID: acct},
			want: core.ErrAccountCategoryRequired,
		},
		{
			name: "zero amount",
			in:   ExpenseInput{UserID: testUser, AccountID: acct, CategoryID: cat},
			want: core.ErrAmountNotPositive,
		},
		{
			name: "exceeds balance",
			in:   ExpenseInput{UserID: testUser, Amount: core.Money{Cents: 120_000}, AccountID: acct, CategoryID: cat},
			want: core.ErrInsufficientBalance,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := eng.CreateExpense(ctx, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !core.IsValidation(err) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}

	// No writes happened: balance intact, no transactions persisted.
	if got := accountTotal(t, st, acct); got != 100_000 {
		t.Fatalf("account mutated by failed validation: %d", got)
	}
	txs, err := st.ListTransactions(ctx, testUser, core.TypeExpense)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("expected no persisted transactions, got %d", len(txs))
	}
}

func TestCreateExpenseDebitsAccount(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	acct := mustAccount(t, st, "Efectivo", 50_000)
	cat := mustCategory(t, st, "Transporte")

	_, err := eng.CreateExpense(ctx, ExpenseInput{
		UserID:     testUser,
		Amount:     core.Money{Cents: 12_345},
		AccountID:  acct,
		CategoryID: cat,
		Date:       core.NewDate(2026, 3, 2),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if got := accountTotal(t, st, acct); got != 37_655 {
		t.Fatalf("expected total 37655, got %d", got)
	}
}

func TestUpdateExpenseRoundTrip(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	acct := mustAccount(t, st, "Efectivo", 100_000)
	cat := mustCategory(t, st, "Comida")

	id, err := eng.CreateExpense(ctx, ExpenseInput{
		UserID:     testUser,
		Amount:     core.Money{Cents: 10_000},
		AccountID:  acct,
		CategoryID: cat,
		Date:       core.NewDate(2026, 3, 3),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	amt := core.Money{Cents: 4_000}
	if err := eng.UpdateExpense(ctx, id, TransactionPatch{Amount: &amt}); err != nil {
		t.Fatalf("update expense: %v", err)
	}

	// Net effect is -4000, not -14000 or -10000.
	if got := accountTotal(t, st, acct); got != 96_000 {
		t.Fatalf("expected total 96000, got %d", got)
	}
}

func TestUpdateExpenseIncreaseInsufficient(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	acct := mustAccount(t, st, "Efectivo", 10_000)
	cat := mustCategory(t, st, "Comida")

	id, err := eng.CreateExpense(ctx, ExpenseInput{
		UserID:     testUser,
		Amount:     core.Money{Cents: 6_000},
		AccountID:  acct,
		CategoryID: cat,
		Date:       core.NewDate(2026, 3, 4),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	// Balance is now 4000; raising the charge by 5000 must fail.
	amt := core.Money{Cents: 11_000}
	err = eng.UpdateExpense(ctx, id, TransactionPatch{Amount: &amt})
	if !errors.Is(err, core.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	// Neither the account nor the record changed.
	if got := accountTotal(t, st, acct); got != 4_000 {
		t.Fatalf("expected total 4000, got %d", got)
	}
	tx, err := st.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if tx.Amount.Cents != 6_000 {
		t.Fatalf("expected amount 6000, got %d", tx.Amount.Cents)
	}
}

func TestUpdateExpenseReassignAccount(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	a := mustAccount(t, st, "A", 60_000)
	b := mustAccount(t, st, "B", 20_000)
	cat := mustCategory(t, st, "Comida")

	id, err := eng.CreateExpense(ctx, ExpenseInput{
		UserID:     testUser,
		Amount:     core.Money{Cents: 10_000},
		AccountID:  a,
		CategoryID: cat,
		Date:       core.NewDate(2026, 3, 5),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if got := accountTotal(t, st, a); got != 50_000 {
		t.Fatalf("expected A charged to 50000, got %d", got)
	}

	if err := eng.UpdateExpense(ctx, id, TransactionPatch{AccountID: &b}); err != nil {
		t.Fatalf("reassign expense: %v", err)
	}
	if got := accountTotal(t, st, a); got != 60_000 {
		t.Fatalf("expected A restored to 60000, got %d", got)
	}
	if got := accountTotal(t, st, b); got != 10_000 {
		t.Fatalf("expected B charged to 10000, got %d", got)
	}
}

func TestUpdateExpenseReassignInsufficientNewAccount(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	a := mustAccount(t, st, "A", 60_000)
	b := mustAccount(t, st, "B", 5_000)
	cat := mustCategory(t, st, "Comida")

	id, err := eng.CreateExpense(ctx, ExpenseInput{
		UserID:     testUser,
		Amount:     core.Money{Cents: 10_000},
		AccountID:  a,
		CategoryID: cat,
		Date:       core.NewDate(2026, 3, 5),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	err = eng.UpdateExpense(ctx, id, TransactionPatch{AccountID: &b})
	if !errors.Is(err, core.ErrInsufficientNewBalance) {
		t.Fatalf("expected insufficient new balance, got %v", err)
	}

	// No changes anywhere: A still charged, B untouched, record unmoved.
	if got := accountTotal(t, st, a); got != 50_000 {
		t.Fatalf("expected A at 50000, got %d", got)
	}
	if got := accountTotal(t, st, b); got != 5_000 {
		t.Fatalf("expected B at 5000, got %d", got)
	}
	tx, err := st.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if tx.AccountID != a {
		t.Fatalf("expected record still on A, got %s", tx.AccountID)
	}
}

func TestUpdateIncomeSameAccountDelta(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	acct := mustAccount(t, st, "Banco", 10_000)

	id, err := eng.CreateIncome(ctx, IncomeInput{
		UserID:    testUser,
		Amount:    core.Money{Cents: 3_000},
		AccountID: acct,
		Date:      core.NewDate(2026, 3, 6),
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}

	// Lowering an income has no sufficiency check even when the account
	// cannot cover the difference.
	amt := core.Money{Cents: 1_000}
	if err := eng.UpdateIncome(ctx, id, TransactionPatch{Amount: &amt}); err != nil {
		t.Fatalf("update income: %v", err)
	}
	if got := accountTotal(t, st, acct); got != 11_000 {
		t.Fatalf("expected total 11000, got %d", got)
	}
}

func TestUpdateIncomeReassignAccount(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	a := mustAccount(t, st, "A", 10_000)
	b := mustAccount(t, st, "B", 0)

	id, err := eng.CreateIncome(ctx, IncomeInput{
		UserID:    testUser,
		Amount:    core.Money{Cents: 2_000},
		AccountID: a,
		Date:      core.NewDate(2026, 3, 7),
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}

	amt := core.Money{Cents: 5_000}
	if err := eng.UpdateIncome(ctx, id, TransactionPatch{Amount: &amt, AccountID: &b}); err != nil {
		t.Fatalf("reassign income: %v", err)
	}
	if got := accountTotal(t, st, a); got != 10_000 {
		t.Fatalf("expected A restored to 10000, got %d", got)
	}
	if got := accountTotal(t, st, b); got != 5_000 {
		t.Fatalf("expected B credited to 5000, got %d", got)
	}
}

func TestUpdateMissingTransactionIsSilentNoop(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	amt := core.Money{Cents: 100}
	if err := eng.UpdateIncome(ctx, "no-such-id", TransactionPatch{Amount: &amt}); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if err := eng.UpdateExpense(ctx, "no-such-id", TransactionPatch{Amount: &amt}); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
}

func TestPatchEmptyAccountKeepsPrevious(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	acct := mustAccount(t, st, "Banco", 10_000)

	id, err := eng.CreateIncome(ctx, IncomeInput{
		UserID:    testUser,
		Amount:    core.Money{Cents: 1_000},
		AccountID: acct,
		Date:      core.NewDate(2026, 3, 8),
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}

	empty := ""
	if err := eng.UpdateIncome(ctx, id, TransactionPatch{AccountID: &empty}); err != nil {
		t.Fatalf("update income: %v", err)
	}
	tx, err := st.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if tx.AccountID != acct {
		t.Fatalf("empty patch account should keep previous, got %q", tx.AccountID)
	}
	if got := accountTotal(t, st, acct); got != 11_000 {
		t.Fatalf("expected total unchanged at 11000, got %d", got)
	}
}

func TestDeleteReversesExactlyOnce(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	acct := mustAccount(t, st, "Efectivo", 50_000)
	cat := mustCategory(t, st, "Comida")

	expID, err := eng.CreateExpense(ctx, ExpenseInput{
		UserID:     testUser,
		Amount:     core.Money{Cents: 7_000},
		AccountID:  acct,
		CategoryID: cat,
		Date:       core.NewDate(2026, 3, 9),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	incID, err := eng.CreateIncome(ctx, IncomeInput{
		UserID:    testUser,
		Amount:    core.Money{Cents: 3_000},
		AccountID: acct,
		Date:      core.NewDate(2026, 3, 9),
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	if got := accountTotal(t, st, acct); got != 46_000 {
		t.Fatalf("expected total 46000, got %d", got)
	}

	if err := eng.DeleteExpense(ctx, expID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if err := eng.DeleteIncome(ctx, incID); err != nil {
		t.Fatalf("delete income: %v", err)
	}
	if got := accountTotal(t, st, acct); got != 50_000 {
		t.Fatalf("expected total restored to 50000, got %d", got)
	}

	// Deleted records read as not found.
	if _, err := st.GetTransaction(ctx, expID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	// A second delete is idempotent and must not reverse again.
	if err := eng.DeleteExpense(ctx, expID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if got := accountTotal(t, st, acct); got != 50_000 {
		t.Fatalf("second delete changed the balance: %d", got)
	}
}

// TestBalanceInvariant runs a scripted mix of operations and checks that every
// account total equals its initial total plus the net of surviving records,
// and that no valid expense sequence drove a total below zero.
func TestBalanceInvariant(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	initial := map[string]int64{}
	a := mustAccount(t, st, "A", 80_000)
	b := mustAccount(t, st, "B", 20_000)
	initial[a] = 80_000
	initial[b] = 20_000
	cat := mustCategory(t, st, "Varios")

	var expenseIDs, incomeIDs []string
	for i := 0; i < 10; i++ {
		id, err := eng.CreateExpense(ctx, ExpenseInput{
			UserID:     testUser,
			Amount:     core.Money{Cents: int64(1_000 + i*137)},
			AccountID:  a,
			CategoryID: cat,
			Date:       core.NewDate(2026, 4, 1+i),
		})
		if err != nil {
			t.Fatalf("create expense %d: %v", i, err)
		}
		expenseIDs = append(expenseIDs, id)

		id, err = eng.CreateIncome(ctx, IncomeInput{
			UserID:    testUser,
			Amount:    core.Money{Cents: int64(500 + i*211)},
			AccountID: b,
			Date:      core.NewDate(2026, 4, 1+i),
		})
		if err != nil {
			t.Fatalf("create income %d: %v", i, err)
		}
		incomeIDs = append(incomeIDs, id)
	}

	// Edits: bump some amounts, reassign some records across accounts,
	// delete a few. Validation failures are allowed and must change nothing.
	for i, id := range expenseIDs {
		switch i % 4 {
		case 0:
			amt := core.Money{Cents: int64(2_000 + i*97)}
			if err := eng.UpdateExpense(ctx, id, TransactionPatch{Amount: &amt}); err != nil && !core.IsValidation(err) {
				t.Fatalf("update expense %d: %v", i, err)
			}
		case 1:
			if err := eng.UpdateExpense(ctx, id, TransactionPatch{AccountID: &b}); err != nil && !core.IsValidation(err) {
				t.Fatalf("reassign expense %d: %v", i, err)
			}
		case 2:
			if err := eng.DeleteExpense(ctx, id); err != nil {
				t.Fatalf("delete expense %d: %v", i, err)
			}
		}
	}
	for i, id := range incomeIDs {
		switch i % 3 {
		case 0:
			amt := core.Money{Cents: int64(100 + i*53)}
			if err := eng.UpdateIncome(ctx, id, TransactionPatch{Amount: &amt}); err != nil {
				t.Fatalf("update income %d: %v", i, err)
			}
		case 1:
			if err := eng.UpdateIncome(ctx, id, TransactionPatch{AccountID: &a}); err != nil {
				t.Fatalf("reassign income %d: %v", i, err)
			}
		}
	}

	// Recompute from surviving records.
	net := map[string]int64{}
	for _, tipo := range []core.TransactionType{core.TypeIncome, core.TypeExpense} {
		txs, err := st.ListTransactions(ctx, testUser, tipo)
		if err != nil {
			t.Fatalf("list %s: %v", tipo, err)
		}
		for _, tx := range txs {
			if tx.AccountID == "" {
				continue
			}
			if tipo == core.TypeIncome {
				net[tx.AccountID] += tx.Amount.Cents
			} else {
				net[tx.AccountID] -= tx.Amount.Cents
			}
		}
	}
	for id, init := range initial {
		want := init + net[id]
		if got := accountTotal(t, st, id); got != want {
			t.Fatalf("invariant broken for account %s: total %d, expected %d", id, got, want)
		}
	}
}

func TestExpenseNonNegativity(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	acct := mustAccount(t, st, "Efectivo", 1_000)
	cat := mustCategory(t, st, "Comida")

	// Repeatedly try charges; only valid ones apply and the total never
	// drops below zero through expense charges.
	for i := 0; i < 8; i++ {
		_, err := eng.CreateExpense(ctx, ExpenseInput{
			UserID:     testUser,
			Amount:     core.Money{Cents: 400},
			AccountID:  acct,
			CategoryID: cat,
			Date:       core.NewDate(2026, 5, 1+i),
		})
		if err != nil && !core.IsValidation(err) {
			t.Fatalf("create expense %d: %v", i, err)
		}
		if got := accountTotal(t, st, acct); got < 0 {
			t.Fatalf("total went negative: %d", got)
		}
	}
	if got := accountTotal(t, st, acct); got != 200 {
		t.Fatalf("expected 200 after two valid charges, got %d", got)
	}
}

type recordingPublisher struct {
	events []string
	fail   bool
}

func (p *recordingPublisher) PublishTransactionEvent(ctx context.Context, op string, t core.Transaction) error {
	if p.fail {
		return fmt.Errorf("broker unavailable")
	}
	p.events = append(p.events, op+":"+string(t.Type))
	return nil
}

func TestEventsPublishedPerMutation(t *testing.T) {
	st := memory.New()
	pub := &recordingPublisher{}
	eng := NewEngine(st, st, pub)
	ctx := context.Background()
	acct := mustAccount(t, st, "Banco", 10_000)

	id, err := eng.CreateIncome(ctx, IncomeInput{
		UserID:    testUser,
		Amount:    core.Money{Cents: 1_000},
		AccountID: acct,
		Date:      core.NewDate(2026, 6, 1),
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	if err := eng.DeleteIncome(ctx, id); err != nil {
		t.Fatalf("delete income: %v", err)
	}

	want := []string{"created:INGRESO", "deleted:INGRESO"}
	if len(pub.events) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), pub.events)
	}
	for i := range want {
		if pub.events[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], pub.events[i])
		}
	}
}

func TestPublisherFailureDoesNotFailOperation(t *testing.T) {
	st := memory.New()
	eng := NewEngine(st, st, &recordingPublisher{fail: true})
	ctx := context.Background()
	acct := mustAccount(t, st, "Banco", 0)

	if _, err := eng.CreateIncome(ctx, IncomeInput{
		UserID:    testUser,
		Amount:    core.Money{Cents: 1_000},
		AccountID: acct,
		Date:      core.NewDate(2026, 6, 2),
	}); err != nil {
		t.Fatalf("operation failed on publisher error: %v", err)
	}
	if got := accountTotal(t, st, acct); got != 1_000 {
		t.Fatalf("expected total 1000, got %d", got)
	}
}
