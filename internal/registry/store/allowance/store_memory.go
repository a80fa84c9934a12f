// Package allowance persists the free-claim allowance table. One allowance
// unit waives the base price of exactly one claim; dividends are never waived.
package allowance

import (
	"context"
	"sync"

	"landgrid/pkg/domain"
)

// Memory is an in-memory allowance store.
type Memory struct {
	mu         sync.RWMutex
	allowances map[domain.AccountID]uint64
}

// NewMemory creates an empty in-memory allowance store.
func NewMemory() *Memory {
	return &Memory{allowances: make(map[domain.AccountID]uint64)}
}

// Get returns the account's remaining free-claim allowance.
func (m *Memory) Get(_ context.Context, account domain.AccountID) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.allowances[account], nil
}

// Set replaces the account's free-claim allowance.
func (m *Memory) Set(_ context.Context, account domain.AccountID, n uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n == 0 {
		delete(m.allowances, account)
		return nil
	}
	m.allowances[account] = n
	return nil
}
