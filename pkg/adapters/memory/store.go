package memory

import (
	"context"
	"sync"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.AttemptState
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.AttemptState),
	}
}

// Save keeps a deep copy so later mutations by the caller are not visible.
func (s *Store) Save(_ context.Context, attemptID string, state *domain.AttemptState) error {
	cp := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[attemptID] = cp
	return nil
}

// Load returns a copy of the stored state.
func (s *Store) Load(_ context.Context, attemptID string) (*domain.AttemptState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[attemptID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state.Clone(), nil
}

// Delete removes the state.
func (s *Store) Delete(_ context.Context, attemptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, attemptID)
	return nil
}

// List returns stored attempt ids.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
