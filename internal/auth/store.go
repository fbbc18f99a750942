package auth

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/aryaduta/workhub-realtime/internal/domain"
)

// ErrAccountNotFound is returned by an AccountStore when no account exists
// for the requested id
var ErrAccountNotFound = errors.New("account not found")

// Account holds the minimal fields the verifier needs from the backing
// account record
type Account struct {
	ID     string      `json:"id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	Active bool        `json:"active"`
}

// AccountStore is the single read the fan-out layer performs against the
// (external) persistence layer
type AccountStore interface {
	FindAccount(ctx context.Context, id string) (Account, error)
}

// MemoryAccountStore is an in-process AccountStore, used in tests and in
// deployments where the account set is pushed in at startup
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryAccountStore creates an empty in-memory store
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts: make(map[string]Account),
	}
}

// Put inserts or replaces an account
func (s *MemoryAccountStore) Put(acc Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acc.ID] = acc
}

// FindAccount implements AccountStore
func (s *MemoryAccountStore) FindAccount(_ context.Context, id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acc, nil
}

// Count returns the number of stored accounts
func (s *MemoryAccountStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// LoadAccountsFile reads a JSON array of accounts into a memory store
func LoadAccountsFile(path string) (*MemoryAccountStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var accounts []Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, err
	}

	store := NewMemoryAccountStore()
	for _, acc := range accounts {
		store.Put(acc)
	}
	return store, nil
}
