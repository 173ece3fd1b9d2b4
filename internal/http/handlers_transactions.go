package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tommikimmel/gestorGastos/internal/auth"
	"github.com/tommikimmel/gestorGastos/internal/core"
	"github.com/tommikimmel/gestorGastos/internal/ledger"
	"github.com/tommikimmel/gestorGastos/internal/store"
)

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	s.listTransactions(w, r, core.TypeIncome)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	s.listTransactions(w, r, core.TypeExpense)
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request, tipo core.TransactionType) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var list []core.Transaction
	if tipo == core.TypeIncome {
		list, err = s.engine.ListIncomes(r.Context(), userID)
	} else {
		list, err = s.engine.ListExpenses(r.Context(), userID)
	}
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	views := make([]transactionView, 0, len(list))
	for _, t := range list {
		views = append(views, toTransactionView(t))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Amount == nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: core.ErrAmountNotPositive.Error()})
		return
	}

	amount, err := parseAmount(*req.Amount)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	date, err := requestDate(req.Date)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	in := ledger.IncomeInput{
		UserID:      userID,
		Amount:      amount,
		AccountID:   strOrEmpty(req.AccountID),
		Date:        date,
		Description: sanitizeInput(strOrEmpty(req.Description)),
		Category:    core.IncomeCategory(strings.ToUpper(strOrEmpty(req.Category))),
	}

	id, err := s.engine.CreateIncome(r.Context(), in)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	s.invalidateSummaries(userID)
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var amount core.Money
	if req.Amount != nil {
		amount, err = parseAmount(*req.Amount)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
	}
	date, err := requestDate(req.Date)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	in := ledger.ExpenseInput{
		UserID:      userID,
		Amount:      amount,
		AccountID:   strOrEmpty(req.AccountID),
		CategoryID:  strOrEmpty(req.CategoryID),
		Date:        date,
		Description: sanitizeInput(strOrEmpty(req.Description)),
	}

	id, err := s.engine.CreateExpense(r.Context(), in)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	s.invalidateSummaries(userID)
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	s.updateTransaction(w, r, core.TypeIncome)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	s.updateTransaction(w, r, core.TypeExpense)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request, tipo core.TransactionType) {
	id := r.PathValue("id")
	userID, err := s.checkTransactionOwner(r, id, tipo)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	if tipo == core.TypeIncome {
		err = s.engine.UpdateIncome(r.Context(), id, patch)
	} else {
		err = s.engine.UpdateExpense(r.Context(), id, patch)
	}
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	s.invalidateSummaries(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	s.deleteTransaction(w, r, core.TypeIncome)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.deleteTransaction(w, r, core.TypeExpense)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request, tipo core.TransactionType) {
	id := r.PathValue("id")
	userID, err := s.checkTransactionOwner(r, id, tipo)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	if tipo == core.TypeIncome {
		err = s.engine.DeleteIncome(r.Context(), id)
	} else {
		err = s.engine.DeleteExpense(r.Context(), id)
	}
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	s.invalidateSummaries(userID)
	w.WriteHeader(http.StatusNoContent)
}

// checkTransactionOwner verifies the record, when it exists, belongs to the
// caller and carries the expected type. A missing id passes through: the
// engine treats edits and deletes of missing ids as no-ops, and the handler
// must preserve that.
func (s *Server) checkTransactionOwner(r *http.Request, id string, tipo core.TransactionType) (string, error) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		return "", err
	}

	t, err := s.store.GetTransaction(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return userID, nil
	}
	if err != nil {
		return userID, err
	}
	if t.UserID != userID || t.Type != tipo {
		return userID, store.ErrNotFound
	}
	return userID, nil
}

// requestDate parses the optional date field, defaulting to today.
func requestDate(s *string) (core.Date, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return core.Today(), nil
	}
	return parseDate(*s)
}
