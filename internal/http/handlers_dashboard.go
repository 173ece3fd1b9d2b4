package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/tommikimmel/gestorGastos/internal/auth"
	"github.com/tommikimmel/gestorGastos/internal/reports"
)

// handleDashboardSummary returns the per-category breakdown for the pie
// chart. type=GASTOS (default) or type=INGRESOS. Results are cached per user
// and dropped on every mutation.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	tipo := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("type")))
	if tipo == "" {
		tipo = "GASTOS"
	}
	if tipo != "GASTOS" && tipo != "INGRESOS" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "type must be GASTOS or INGRESOS"})
		return
	}

	key := s.summaryKey(userID, tipo)
	if summary, found := s.summaryCache.Get(key); found {
		slog.DebugContext(r.Context(), "Summary cache hit", "user_id", userID, "type", tipo)
		writeJSON(w, http.StatusOK, toSummaryView(summary))
		return
	}

	var summary reports.Summary
	if tipo == "INGRESOS" {
		incomes, err := s.engine.ListIncomes(r.Context(), userID)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		summary = reports.IncomeSummary(incomes)
	} else {
		expenses, err := s.engine.ListExpenses(r.Context(), userID)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		categories, err := s.store.ListCategories(r.Context(), userID)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		summary = reports.ExpenseSummary(expenses, categories)
	}

	s.summaryCache.Set(key, summary)
	writeJSON(w, http.StatusOK, toSummaryView(summary))
}
