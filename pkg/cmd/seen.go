package cmd

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dukex/areaflow/pkg/cache"
)

// NewSeenStore picks the seen-state backend: Redis when a URL is given,
// otherwise a bounded in-memory LRU.
func NewSeenStore(redisURL string, lruCapacity int) cache.SeenStore {
	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			panic(fmt.Errorf("invalid redis url: %w", err))
		}

		return cache.NewRedisStore(redis.NewClient(opts), "")
	}

	store, err := cache.NewLRUStore(lruCapacity)
	if err != nil {
		panic(fmt.Errorf("failed to create LRU seen store: %w", err))
	}

	return store
}
