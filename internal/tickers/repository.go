package tickers

import (
	"context"
	"sync"
)

// Repository persists the directory between restarts.
type Repository interface {
	List(ctx context.Context) ([]Company, error)
	ReplaceAll(ctx context.Context, companies []Company) error
}

// MemoryRepository keeps companies in process. It backs deployments without
// Postgres and tests.
type MemoryRepository struct {
	mu        sync.Mutex
	companies []Company
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// List returns the stored companies.
func (m *MemoryRepository) List(context.Context) ([]Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Company, len(m.companies))
	copy(out, m.companies)
	return out, nil
}

// ReplaceAll overwrites the stored companies.
func (m *MemoryRepository) ReplaceAll(_ context.Context, companies []Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies = append(m.companies[:0:0], companies...)
	return nil
}
