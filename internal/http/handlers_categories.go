package http

import (
	"errors"
	"net/http"

	"github.com/tommikimmel/gestorGastos/internal/auth"
	"github.com/tommikimmel/gestorGastos/internal/core"
	"github.com/tommikimmel/gestorGastos/internal/store"
)

func (s *Server) ownedCategory(r *http.Request, id string) (core.Category, string, error) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		return core.Category{}, "", err
	}
	c, err := s.store.GetCategory(r.Context(), id)
	if err != nil {
		return core.Category{}, userID, err
	}
	if c.UserID != userID {
		return core.Category{}, userID, store.ErrNotFound
	}
	return c, userID, nil
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	categories, err := s.store.ListCategories(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	views := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, toCategoryView(c))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	c := core.Category{
		UserID: userID,
		Name:   sanitizeInput(strOrEmpty(req.Name)),
		Icon:   sanitizeInput(strOrEmpty(req.Icon)),
		Color:  sanitizeInput(strOrEmpty(req.Color)),
	}
	if err := c.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	id, err := s.store.InsertCategory(r.Context(), c)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	s.invalidateSummaries(userID)
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	_, userID, err := s.ownedCategory(r, id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var fields store.CategoryFields
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		if name == "" {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: core.ErrEmptyName.Error()})
			return
		}
		fields.Name = &name
	}
	if req.Icon != nil {
		icon := sanitizeInput(*req.Icon)
		fields.Icon = &icon
	}
	if req.Color != nil {
		color := sanitizeInput(*req.Color)
		fields.Color = &color
	}

	if err := s.store.UpdateCategory(r.Context(), id, fields); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	s.invalidateSummaries(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	_, userID, err := s.ownedCategory(r, id)
	if errors.Is(err, store.ErrNotFound) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	// Transactions keep their category_id; the dashboard resolves dangling
	// references into the uncategorized bucket.
	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	s.invalidateSummaries(userID)
	w.WriteHeader(http.StatusNoContent)
}
