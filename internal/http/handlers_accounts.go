package http

import (
	"errors"
	"net/http"

	"github.com/tommikimmel/gestorGastos/internal/auth"
	"github.com/tommikimmel/gestorGastos/internal/core"
	"github.com/tommikimmel/gestorGastos/internal/store"
)

// ownedAccount fetches an account and hides other users' documents behind
// ErrNotFound, so ownership is indistinguishable from absence.
func (s *Server) ownedAccount(r *http.Request, id string) (core.Account, string, error) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		return core.Account{}, "", err
	}
	a, err := s.store.GetAccount(r.Context(), id)
	if err != nil {
		return core.Account{}, userID, err
	}
	if a.UserID != userID {
		return core.Account{}, userID, store.ErrNotFound
	}
	return a, userID, nil
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	accounts, err := s.store.ListAccounts(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, toAccountView(a))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, _, err := s.ownedAccount(r, r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountView(a))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	a := core.Account{
		UserID: userID,
		Name:   sanitizeInput(strOrEmpty(req.Name)),
	}
	if req.Total != nil {
		m, err := parseTotal(*req.Total)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		a.Total = m
	}
	if err := a.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	id, err := s.store.InsertAccount(r.Context(), a)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	s.invalidateSummaries(userID)
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	_, userID, err := s.ownedAccount(r, id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var fields store.AccountFields
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		if name == "" {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: core.ErrEmptyName.Error()})
			return
		}
		fields.Name = &name
	}
	if req.Total != nil {
		m, err := parseTotal(*req.Total)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		fields.Total = &m
	}

	if err := s.store.UpdateAccount(r.Context(), id, fields); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	s.invalidateSummaries(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	_, userID, err := s.ownedAccount(r, id)
	if errors.Is(err, store.ErrNotFound) {
		// Idempotent delete.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	if err := s.store.DeleteAccount(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	s.invalidateSummaries(userID)
	w.WriteHeader(http.StatusNoContent)
}
