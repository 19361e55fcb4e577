package directory

import (
	"context"
	"sync"

	"campanile/api/internal/identity"
	"campanile/api/internal/model"
)

// MemoryStore is the in-memory adapter for tests and development.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]model.Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]model.Account)}
}

var _ Store = (*MemoryStore)(nil)

// Put inserts or replaces an account. The map key is the email, so no
// two variants can share one.
func (s *MemoryStore) Put(account model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.Email] = account
}

func (s *MemoryStore) Delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, email)
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[email]
	if !ok {
		return model.Account{}, identity.ErrAccountNotFound
	}
	return account, nil
}
