package reports

import (
	"testing"

	"github.com/tommikimmel/gestorGastos/internal/core"
)

func income(cat core.IncomeCategory, cents int64) core.Transaction {
	return core.Transaction{
		Type:           core.TypeIncome,
		Amount:         core.Money{Cents: cents},
		IncomeCategory: cat,
	}
}

func expense(categoryID string, cents int64) core.Transaction {
	return core.Transaction{
		Type:       core.TypeExpense,
		Amount:     core.Money{Cents: cents},
		CategoryID: categoryID,
	}
}

func TestIncomeSummaryEmpty(t *testing.T) {
	s := IncomeSummary(nil)
	if s.Total.Cents != 0 {
		t.Fatalf("expected zero total, got %d", s.Total.Cents)
	}
	if len(s.Slices) != 0 {
		t.Fatalf("expected empty breakdown, got %d slices", len(s.Slices))
	}
}

func TestIncomeSummaryGroupsAndDefaults(t *testing.T) {
	s := IncomeSummary([]core.Transaction{
		income(core.IncomeSalarios, 60_000),
		income(core.IncomeSalarios, 20_000),
		income("", 15_000),       // defaults to OTROS
		income("BONUS", 5_000),   // unknown defaults to OTROS
	})

	if s.Total.Cents != 100_000 {
		t.Fatalf("expected total 100000, got %d", s.Total.Cents)
	}
	if len(s.Slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(s.Slices))
	}

	// Largest first.
	if s.Slices[0].Key != string(core.IncomeSalarios) || s.Slices[0].Percent != 80 {
		t.Fatalf("unexpected first slice: %+v", s.Slices[0])
	}
	if s.Slices[1].Key != string(core.IncomeOtros) || s.Slices[1].Percent != 20 {
		t.Fatalf("unexpected second slice: %+v", s.Slices[1])
	}
	if s.Slices[1].Total.Cents != 20_000 {
		t.Fatalf("OTROS bucket should merge empty and unknown tags, got %d", s.Slices[1].Total.Cents)
	}
	if s.Slices[0].Label != "Salarios" {
		t.Fatalf("expected label Salarios, got %s", s.Slices[0].Label)
	}
}

func TestExpenseSummaryResolvesCategories(t *testing.T) {
	cats := []core.Category{
		{ID: "c1", Name: "Comida", Color: "#0ea5e9"},
		{ID: "c2", Name: "Transporte", Color: "#facc15"},
	}
	s := ExpenseSummary([]core.Transaction{
		expense("c1", 50_000),
		expense("c2", 30_000),
		expense("", 10_000),        // no category
		expense("deleted", 10_000), // category no longer exists
	}, cats)

	if s.Total.Cents != 100_000 {
		t.Fatalf("expected total 100000, got %d", s.Total.Cents)
	}
	if len(s.Slices) != 4 {
		t.Fatalf("expected 4 slices, got %d", len(s.Slices))
	}
	if s.Slices[0].Label != "Comida" || s.Slices[0].Percent != 50 {
		t.Fatalf("unexpected first slice: %+v", s.Slices[0])
	}

	var sawUncategorized, sawDeleted bool
	for _, sl := range s.Slices {
		switch sl.Key {
		case UncategorizedKey:
			sawUncategorized = true
			if sl.Label != "Sin categoría" {
				t.Fatalf("unexpected uncategorized label: %s", sl.Label)
			}
		case "deleted":
			sawDeleted = true
			if sl.Label != "Sin categoría" {
				t.Fatalf("unresolvable category should use the sentinel label, got %s", sl.Label)
			}
		}
	}
	if !sawUncategorized || !sawDeleted {
		t.Fatalf("missing sentinel buckets in %+v", s.Slices)
	}
}

func TestPercentRounding(t *testing.T) {
	cases := []struct {
		part, total int64
		want        int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 200, 1}, // 0.5% rounds up
		{100, 100, 100},
	}
	for i, tc := range cases {
		if got := percent(tc.part, tc.total); got != tc.want {
			t.Fatalf("case %d: percent(%d, %d) = %d, expected %d", i, tc.part, tc.total, got, tc.want)
		}
	}
}
