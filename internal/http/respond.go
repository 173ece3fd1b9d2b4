package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tommikimmel/gestorGastos/internal/core"
	"github.com/tommikimmel/gestorGastos/internal/reports"
	"github.com/tommikimmel/gestorGastos/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain errors onto status codes. Validation errors carry
// their message verbatim; not-found is its own status; everything else is an
// opaque 500 so internals never leak to clients.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case core.IsValidation(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: store.ErrNotFound.Error()})
	default:
		slog.ErrorContext(ctx, "Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "operation failed"})
	}
}

type (
	accountView struct {
		ID         string  `json:"id"`
		Name       string  `json:"name"`
		Total      float64 `json:"total"`
		TotalCents int64   `json:"total_cents"`
	}

	categoryView struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
	}

	transactionView struct {
		ID             string  `json:"id"`
		Type           string  `json:"type"`
		Amount         float64 `json:"amount"`
		AmountCents    int64   `json:"amount_cents"`
		AccountID      string  `json:"account_id,omitempty"`
		CategoryID     string  `json:"category_id,omitempty"`
		IncomeCategory string  `json:"income_category,omitempty"`
		Date           string  `json:"date"`
		Description    string  `json:"description,omitempty"`
	}

	sliceView struct {
		Key        string  `json:"key"`
		Label      string  `json:"label"`
		Color      string  `json:"color"`
		Total      float64 `json:"total"`
		TotalCents int64   `json:"total_cents"`
		Percent    int     `json:"percent"`
	}

	summaryView struct {
		Total      float64     `json:"total"`
		TotalCents int64       `json:"total_cents"`
		Slices     []sliceView `json:"slices"`
	}

	createdResponse struct {
		ID string `json:"id"`
	}
)

func toAccountView(a core.Account) accountView {
	return accountView{
		ID:         a.ID,
		Name:       a.Name,
		Total:      a.Total.Units(),
		TotalCents: a.Total.Cents,
	}
}

func toCategoryView(c core.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Icon: c.Icon, Color: c.Color}
}

func toTransactionView(t core.Transaction) transactionView {
	v := transactionView{
		ID:          t.ID,
		Type:        string(t.Type),
		Amount:      t.Amount.Units(),
		AmountCents: t.Amount.Cents,
		AccountID:   t.AccountID,
		Date:        t.Date.Format("2006-01-02"),
		Description: t.Description,
	}
	if t.Type == core.TypeIncome {
		v.IncomeCategory = string(core.NormalizeIncomeCategory(t.IncomeCategory))
	} else {
		v.CategoryID = t.CategoryID
	}
	return v
}

func toSummaryView(s reports.Summary) summaryView {
	out := summaryView{
		Total:      s.Total.Units(),
		TotalCents: s.Total.Cents,
		Slices:     make([]sliceView, 0, len(s.Slices)),
	}
	for _, sl := range s.Slices {
		out.Slices = append(out.Slices, sliceView{
			Key:        sl.Key,
			Label:      sl.Label,
			Color:      sl.Color,
			Total:      sl.Total.Units(),
			TotalCents: sl.Total.Cents,
			Percent:    sl.Percent,
		})
	}
	return out
}
