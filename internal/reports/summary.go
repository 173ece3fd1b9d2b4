// Package reports derives per-category totals and shares from a user's
// transaction set. Pure functions over their inputs; no stored state.
package reports

import (
	"sort"

	"github.com/tommikimmel/gestorGastos/internal/core"
)

// UncategorizedKey is the sentinel bucket for expenses whose category is
// absent or no longer resolvable.
const UncategorizedKey = "sin-categoria"

const (
	uncategorizedLabel = "Sin categoría"
	uncategorizedColor = "#f97373"
)

type (
	// Slice is one category's share of a breakdown.
	Slice struct {
		Key     string
		Label   string
		Color   string
		Total   core.Money
		Percent int
	}

	// Summary is a full breakdown: overall total plus one slice per
	// category that has at least one transaction.
	Summary struct {
		Total  core.Money
		Slices []Slice
	}
)

// IncomeSummary groups incomes by their fixed category tag, defaulting to
// OTROS, and computes each group's share of the total.
func IncomeSummary(incomes []core.Transaction) Summary {
	sums := make(map[string]int64)
	var total int64
	for _, t := range incomes {
		key := string(core.NormalizeIncomeCategory(t.IncomeCategory))
		sums[key] += t.Amount.Cents
		total += t.Amount.Cents
	}

	slices := make([]Slice, 0, len(sums))
	for key, cents := range sums {
		cat := core.IncomeCategory(key)
		slices = append(slices, Slice{
			Key:     key,
			Label:   cat.Label(),
			Color:   cat.Color(),
			Total:   core.Money{Cents: cents},
			Percent: percent(cents, total),
		})
	}
	return Summary{Total: core.Money{Cents: total}, Slices: sorted(slices)}
}

// ExpenseSummary groups expenses by category id, resolving names and colors
// from the category set. Unresolvable references fall into the
// "sin-categoria" bucket.
func ExpenseSummary(expenses []core.Transaction, categories []core.Category) Summary {
	byID := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	sums := make(map[string]int64)
	var total int64
	for _, t := range expenses {
		key := t.CategoryID
		if key == "" {
			key = UncategorizedKey
		}
		sums[key] += t.Amount.Cents
		total += t.Amount.Cents
	}

	slices := make([]Slice, 0, len(sums))
	for key, cents := range sums {
		label := uncategorizedLabel
		color := uncategorizedColor
		if cat, ok := byID[key]; ok {
			label = cat.Name
			if cat.Color != "" {
				color = cat.Color
			}
		}
		slices = append(slices, Slice{
			Key:     key,
			Label:   label,
			Color:   color,
			Total:   core.Money{Cents: cents},
			Percent: percent(cents, total),
		})
	}
	return Summary{Total: core.Money{Cents: total}, Slices: sorted(slices)}
}

// percent returns the half-up rounded share of part in total, 0 when the
// total is zero.
func percent(part, total int64) int {
	if total == 0 {
		return 0
	}
	return int((part*100 + total/2) / total)
}

// sorted orders slices largest first, ties broken by key, so breakdowns are
// deterministic.
func sorted(slices []Slice) []Slice {
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Total.Cents != slices[j].Total.Cents {
			return slices[i].Total.Cents > slices[j].Total.Cents
		}
		return slices[i].Key < slices[j].Key
	})
	return slices
}
