// Package memory provides an in-memory store implementation, selected with
// DATA_BACKEND=memory. It backs local development and the engine tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tommikimmel/gestorGastos/internal/core"
	"github.com/tommikimmel/gestorGastos/internal/store"
)

type Store struct {
	mu           sync.Mutex
	accounts     map[string]core.Account
	categories   map[string]core.Category
	transactions map[string]core.Transaction
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		accounts:     make(map[string]core.Account),
		categories:   make(map[string]core.Category),
		transactions: make(map[string]core.Transaction),
	}
}

func (s *Store) GetAccount(ctx context.Context, id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, store.ErrNotFound
	}
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Account, 0)
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) InsertAccount(ctx context.Context, a core.Account) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.NewString()
	s.accounts[a.ID] = a
	return a.ID, nil
}

func (s *Store) UpdateAccount(ctx context.Context, id string, fields store.AccountFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return store.ErrNotFound
	}
	if fields.Name != nil {
		a.Name = *fields.Name
	}
	if fields.Total != nil {
		a.Total = *fields.Total
	}
	s.accounts[id] = a
	return nil
}

func (s *Store) AdjustTotal(ctx context.Context, id string, delta core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Total.Cents += delta.Cents
	s.accounts[id] = a
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, id)
	return nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, store.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) InsertCategory(ctx context.Context, c core.Category) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.NewString()
	s.categories[c.ID] = c
	return c.ID, nil
}

func (s *Store) UpdateCategory(ctx context.Context, id string, fields store.CategoryFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return store.ErrNotFound
	}
	if fields.Name != nil {
		c.Name = *fields.Name
	}
	if fields.Icon != nil {
		c.Icon = *fields.Icon
	}
	if fields.Color != nil {
		c.Color = *fields.Color
	}
	s.categories[id] = c
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.categories, id)
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, store.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, userID string, tipo core.TransactionType) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID == userID && t.Type == tipo {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) InsertTransaction(ctx context.Context, t core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	s.transactions[t.ID] = t
	return t.ID, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; !ok {
		return store.ErrNotFound
	}
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transactions, id)
	return nil
}
