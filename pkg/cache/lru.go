package cache

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUStore is a bounded seen-state store with one global capacity shared
// across all automations, for connectors whose item pool is effectively
// unbounded (e.g. chat messages). Adding an existing key refreshes its
// recency; inserting over capacity evicts the least-recently-used key.
type LRUStore struct {
	entries *lru.Cache[string, struct{}]
}

// NewLRUStore creates a bounded store holding at most capacity item ids.
func NewLRUStore(capacity int) (*LRUStore, error) {
	entries, err := lru.New[string, struct{}](capacity)
	if err != nil {
		return nil, err
	}

	return &LRUStore{entries: entries}, nil
}

func lruKey(automationID, itemID string) string {
	return automationID + "/" + itemID
}

func (s *LRUStore) Contains(_ context.Context, automationID, itemID string) (bool, error) {
	return s.entries.Contains(lruKey(automationID, itemID)), nil
}

func (s *LRUStore) Add(_ context.Context, automationID, itemID string) error {
	s.entries.Add(lruKey(automationID, itemID), struct{}{})

	return nil
}

func (s *LRUStore) Size(_ context.Context, automationID string) (int, error) {
	prefix := automationID + "/"
	count := 0

	for _, key := range s.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			count++
		}
	}

	return count, nil
}

// Clear removes every key belonging to the automation, leaving other
// automations' entries untouched.
func (s *LRUStore) Clear(_ context.Context, automationID string) error {
	prefix := automationID + "/"

	for _, key := range s.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.entries.Remove(key)
		}
	}

	return nil
}
