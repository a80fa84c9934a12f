// Package auction persists active auction records.
package auction

import (
	"context"
	"sync"

	"landgrid/internal/auction/models"
	"landgrid/pkg/domain"
	"landgrid/pkg/platform/sentinel"
)

// Memory is an in-memory auction store guarded by a RWMutex.
type Memory struct {
	mu       sync.RWMutex
	auctions map[domain.PlotID]*models.Auction
}

// NewMemory creates an empty in-memory auction store.
func NewMemory() *Memory {
	return &Memory{auctions: make(map[domain.PlotID]*models.Auction)}
}

// Create inserts an auction record. Returns sentinel.ErrConflict if the plot
// is already on auction.
func (m *Memory) Create(_ context.Context, a *models.Auction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.auctions[a.PlotID]; ok {
		return sentinel.ErrConflict
	}
	m.auctions[a.PlotID] = a.Clone()
	return nil
}

// Get returns the active auction for id, or sentinel.ErrNotFound.
func (m *Memory) Get(_ context.Context, id domain.PlotID) (*models.Auction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.auctions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return a.Clone(), nil
}

// Delete removes the auction record for id. Returns sentinel.ErrNotFound if
// no auction is active.
func (m *Memory) Delete(_ context.Context, id domain.PlotID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.auctions[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.auctions, id)
	return nil
}
