// Package memory keeps table snapshots in process memory. It backs tests and
// throwaway runs.
package memory

import (
	"context"
	"sync"

	"github.com/mamadbah2/pantry/internal/repository"
)

// Store is an in-memory repository.Store.
type Store struct {
	mu     sync.RWMutex
	tables map[repository.Table][]byte
	saves  map[repository.Table]int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		tables: make(map[repository.Table][]byte),
		saves:  make(map[repository.Table]int),
	}
}

// Load returns a copy of the saved snapshot, or nil.
func (s *Store) Load(_ context.Context, table repository.Table) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.tables[table]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

// Save replaces the snapshot of table.
func (s *Store) Save(_ context.Context, table repository.Table, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables[table] = append([]byte(nil), data...)
	s.saves[table]++
	return nil
}

// Saves reports how many times table was written.
func (s *Store) Saves(table repository.Table) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves[table]
}
