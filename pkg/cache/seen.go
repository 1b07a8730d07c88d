// Package cache provides seen-state tracking for connector polling: the set
// of remote item ids that have already produced automation runs. Two shapes
// exist behind one interface, chosen per connector by expected item volume: a
// bounded LRU with a global cap shared by every automation, and an unbounded
// per-automation set for connectors whose live working set stays small. A
// Redis-backed store covers deployments where seen-state must survive
// restarts.
package cache

import "context"

// SeenStore tracks which remote items an automation has already reacted to.
// Stores are shared across concurrent automation processing within one
// connector loop and must be safe for concurrent use.
type SeenStore interface {
	// Contains reports whether the item already produced a run.
	Contains(ctx context.Context, automationID, itemID string) (bool, error)

	// Add marks an item as seen, both when priming and after execution.
	Add(ctx context.Context, automationID, itemID string) error

	// Size returns the number of items tracked for one automation. A size of
	// zero means the automation has never been polled, which triggers
	// priming on the next poll.
	Size(ctx context.Context, automationID string) (int, error)

	// Clear drops all seen-state for an automation when it is disabled or
	// deleted.
	Clear(ctx context.Context, automationID string) error
}
