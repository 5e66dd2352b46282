package staff

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryRepository builds an in-memory account store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{accounts: make(map[string]Account)}
}

func (r *memoryRepository) Create(_ context.Context, account Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[account.Email]; exists {
		return errors.New("account exists")
	}
	r.accounts[account.Email] = account
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[email]
	if !ok {
		return Account{}, ErrNotFound
	}
	return account, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, account := range r.accounts {
		if account.ID == id {
			return account, nil
		}
	}
	return Account{}, ErrNotFound
}

func (r *memoryRepository) UpdateTokenVersion(_ context.Context, id string, version int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, account := range r.accounts {
		if account.ID == id {
			account.TokenVersion = version
			r.accounts[email] = account
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepository) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, account := range r.accounts {
		if account.ID == id {
			t := at.UTC()
			account.LastLogin = &t
			r.accounts[email] = account
			return nil
		}
	}
	return ErrNotFound
}
