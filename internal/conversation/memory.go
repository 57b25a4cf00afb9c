package conversation

import (
	"slices"
	"sync"
)

type memoryStore struct {
	turns []Turn
	mu    sync.RWMutex
}

// NewMemoryStore creates a Store backed by an in-memory slice.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Append(turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	return nil
}

func (s *memoryStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
	return nil
}

func (s *memoryStore) All() ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.turns), nil
}
