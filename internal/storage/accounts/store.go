// Package accounts owns the in-memory account map. State is process-lifetime
// only: a restart starts every user over, which is the point of a paper
// trading simulator.
package accounts

import (
	"sync"

	"github.com/shopspring/decimal"

	"solpaper/internal/domain"
)

// Store holds all user accounts. It is created once and passed to the
// components that need it, so tests get isolation from fresh instances.
type Store struct {
	mu              sync.RWMutex
	startingBalance decimal.Decimal
	accounts        map[string]*domain.Account
}

// NewStore creates a store that seeds new accounts with startingBalance SOL.
func NewStore(startingBalance decimal.Decimal) *Store {
	return &Store{
		startingBalance: startingBalance,
		accounts:        make(map[string]*domain.Account),
	}
}

// GetOrCreate returns the account for the user, creating it on first
// reference. Accounts are never destroyed.
func (s *Store) GetOrCreate(userID string) *domain.Account {
	s.mu.RLock()
	account, ok := s.accounts[userID]
	s.mu.RUnlock()
	if ok {
		return account
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if account, ok := s.accounts[userID]; ok {
		return account
	}
	account = domain.NewAccount(userID, s.startingBalance)
	s.accounts[userID] = account
	return account
}

// Get returns the account for the user, or nil if it was never referenced.
func (s *Store) Get(userID string) *domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[userID]
}
