// Package state persists the administrative state record.
package state

import (
	"context"
	"sync"

	"landgrid/internal/access/models"
)

// Memory is an in-memory state store.
type Memory struct {
	mu    sync.RWMutex
	state models.State
}

// NewMemory creates a state store seeded with the given record.
func NewMemory(initial models.State) *Memory {
	return &Memory{state: initial}
}

// Get returns the current administrative state.
func (m *Memory) Get(_ context.Context) (models.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, nil
}

// Put replaces the administrative state.
func (m *Memory) Put(_ context.Context, s models.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	return nil
}
