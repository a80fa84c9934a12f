// Package params persists the treasurer-mutable economic configuration.
package params

import (
	"context"
	"sync"

	"landgrid/internal/registry/models"
)

// Memory is an in-memory params store.
type Memory struct {
	mu     sync.RWMutex
	params models.Params
}

// NewMemory creates a params store seeded with the given configuration.
func NewMemory(initial models.Params) *Memory {
	return &Memory{params: initial}
}

// Get returns the current economic parameters.
func (m *Memory) Get(_ context.Context) (models.Params, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.params, nil
}

// Put replaces the economic parameters.
func (m *Memory) Put(_ context.Context, p models.Params) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params = p
	return nil
}
