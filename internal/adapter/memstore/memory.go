package memstore

import (
	"slices"
	"sync"

	"runnerrag/internal/adapter/store"
	"runnerrag/internal/domain"
)

// MemoryIndex is a process-local vector index. It backs the "memory" index
// backend and the use case tests.
type MemoryIndex struct {
	mu       sync.RWMutex
	entries  []domain.IndexedVector
	exists   bool
	rebuilds int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

func (s *MemoryIndex) Rebuild(entries []domain.IndexedVector) error {
	if err := store.ValidateEntries(entries); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = slices.Clone(entries)
	s.exists = true
	s.rebuilds++
	return nil
}

func (s *MemoryIndex) Query(vector []float32, k int) ([]domain.Match, error) {
	s.mu.Lock()
	s.exists = true
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.Rank(vector, s.entries, k)
}

func (s *MemoryIndex) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Exists reports whether Rebuild or Query has created the collection.
func (s *MemoryIndex) Exists() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exists, nil
}

// Rebuilds returns how many times the contents were replaced.
func (s *MemoryIndex) Rebuilds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rebuilds
}

// Entries returns a copy of the stored vectors in storage order.
func (s *MemoryIndex) Entries() []domain.IndexedVector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

func (s *MemoryIndex) Close() error {
	return nil
}
