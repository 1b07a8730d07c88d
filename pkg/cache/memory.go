package cache

import (
	"context"
	"sync"
)

// SetStore is an unbounded per-automation seen-state store. It is the right
// shape when the connector can only ever surface a small live working set
// per automation (e.g. a repository's recent events), so the set is capped
// implicitly by item volume rather than by eviction.
type SetStore struct {
	mu   sync.RWMutex
	sets map[string]map[string]struct{}
}

// NewSetStore creates an empty per-automation set store.
func NewSetStore() *SetStore {
	return &SetStore{sets: make(map[string]map[string]struct{})}
}

func (s *SetStore) Contains(_ context.Context, automationID, itemID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sets[automationID][itemID]

	return ok, nil
}

func (s *SetStore) Add(_ context.Context, automationID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[automationID]
	if !ok {
		set = make(map[string]struct{})
		s.sets[automationID] = set
	}

	set[itemID] = struct{}{}

	return nil
}

func (s *SetStore) Size(_ context.Context, automationID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sets[automationID]), nil
}

func (s *SetStore) Clear(_ context.Context, automationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sets, automationID)

	return nil
}
