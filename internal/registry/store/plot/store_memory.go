// Package plot persists claimed plot records.
package plot

import (
	"context"
	"sync"

	"landgrid/internal/registry/models"
	"landgrid/pkg/domain"
	"landgrid/pkg/platform/sentinel"
)

// Memory is an in-memory plot store guarded by a RWMutex.
type Memory struct {
	mu    sync.RWMutex
	plots map[domain.PlotID]*models.Plot
}

// NewMemory creates an empty in-memory plot store.
func NewMemory() *Memory {
	return &Memory{plots: make(map[domain.PlotID]*models.Plot)}
}

// Create inserts a new plot record. Returns sentinel.ErrConflict if the plot
// is already claimed.
func (m *Memory) Create(_ context.Context, p *models.Plot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plots[p.ID]; ok {
		return sentinel.ErrConflict
	}
	m.plots[p.ID] = p.Clone()
	return nil
}

// Get returns the plot record for id, or sentinel.ErrNotFound when unclaimed.
func (m *Memory) Get(_ context.Context, id domain.PlotID) (*models.Plot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plots[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

// GetMany returns the claimed plots among ids, keyed by id. Unclaimed ids are
// simply absent from the result.
func (m *Memory) GetMany(_ context.Context, ids []domain.PlotID) (map[domain.PlotID]*models.Plot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[domain.PlotID]*models.Plot, len(ids))
	for _, id := range ids {
		if p, ok := m.plots[id]; ok {
			out[id] = p.Clone()
		}
	}
	return out, nil
}

// Update replaces an existing plot record. Returns sentinel.ErrNotFound when
// the plot was never claimed.
func (m *Memory) Update(_ context.Context, p *models.Plot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plots[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	m.plots[p.ID] = p.Clone()
	return nil
}

// Count returns the number of claimed plots.
func (m *Memory) Count(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.plots)), nil
}

// CountByOwner returns the number of plots owned by owner.
func (m *Memory) CountByOwner(_ context.Context, owner domain.AccountID) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n uint64
	for _, p := range m.plots {
		if p.Owner == owner {
			n++
		}
	}
	return n, nil
}
