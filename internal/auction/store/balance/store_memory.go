// Package balance persists the auction escrow's pull-payment ledger: seller
// proceeds owed per account plus the free (fee) balance owned by the service.
package balance

import (
	"context"
	"sync"

	"landgrid/pkg/domain"
)

// Memory is an in-memory auction ledger guarded by a RWMutex.
type Memory struct {
	mu   sync.RWMutex
	owed map[domain.AccountID]uint64
	free uint64
}

// NewMemory creates an empty in-memory auction ledger.
func NewMemory() *Memory {
	return &Memory{owed: make(map[domain.AccountID]uint64)}
}

// Credit adds amount to the proceeds owed to account.
func (m *Memory) Credit(_ context.Context, account domain.AccountID, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owed[account] += amount
	return nil
}

// Balance returns the proceeds owed to account.
func (m *Memory) Balance(_ context.Context, account domain.AccountID) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.owed[account], nil
}

// Withdraw zeroes and returns the proceeds owed to account.
func (m *Memory) Withdraw(_ context.Context, account domain.AccountID) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	amount := m.owed[account]
	delete(m.owed, account)
	return amount, nil
}

// CreditFree adds retained fees to the free balance.
func (m *Memory) CreditFree(_ context.Context, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.free += amount
	return nil
}

// FreeBalance returns the accumulated fee balance.
func (m *Memory) FreeBalance(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.free, nil
}

// WithdrawFree zeroes and returns the accumulated fee balance.
func (m *Memory) WithdrawFree(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	amount := m.free
	m.free = 0
	return amount, nil
}
