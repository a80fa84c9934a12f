// Package balance persists the pull-payment ledger: amounts owed to
// individual accounts plus the protocol's own fee balance. Credits are
// additive; the only debit is a caller-scoped withdrawal that zeroes one
// balance.
package balance

import (
	"context"
	"sync"

	"landgrid/pkg/domain"
)

// Memory is an in-memory balance store guarded by a RWMutex.
type Memory struct {
	mu       sync.RWMutex
	owed     map[domain.AccountID]uint64
	protocol uint64
}

// NewMemory creates an empty in-memory balance store.
func NewMemory() *Memory {
	return &Memory{owed: make(map[domain.AccountID]uint64)}
}

// Credit adds amount to the account's outstanding balance.
func (m *Memory) Credit(_ context.Context, account domain.AccountID, amount uint64) error {
	if amount == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owed[account] += amount
	return nil
}

// Balance returns the account's outstanding balance, zero when nothing is owed.
func (m *Memory) Balance(_ context.Context, account domain.AccountID) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.owed[account], nil
}

// Withdraw zeroes the account's balance and returns the amount released.
func (m *Memory) Withdraw(_ context.Context, account domain.AccountID) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	amount := m.owed[account]
	delete(m.owed, account)
	return amount, nil
}

// CreditProtocol adds amount to the protocol treasury balance.
func (m *Memory) CreditProtocol(_ context.Context, amount uint64) error {
	if amount == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.protocol += amount
	return nil
}

// ProtocolBalance returns the protocol treasury balance.
func (m *Memory) ProtocolBalance(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.protocol, nil
}

// WithdrawProtocol zeroes the protocol balance and returns the amount released.
func (m *Memory) WithdrawProtocol(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	amount := m.protocol
	m.protocol = 0
	return amount, nil
}

// OutstandingTotal returns the sum owed across all individual accounts,
// excluding the protocol balance.
func (m *Memory) OutstandingTotal(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total uint64
	for _, amount := range m.owed {
		total += amount
	}
	return total, nil
}
