package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps seen-state in one Redis set per automation, so dedup
// survives process restarts and can be shared by multiple scheduler
// instances.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed store. The prefix namespaces keys so
// several connectors can share one Redis database.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "areaflow:seen"
	}

	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(automationID string) string {
	return s.prefix + ":" + automationID
}

func (s *RedisStore) Contains(ctx context.Context, automationID, itemID string) (bool, error) {
	seen, err := s.client.SIsMember(ctx, s.key(automationID), itemID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check seen-state: %w", err)
	}

	return seen, nil
}

func (s *RedisStore) Add(ctx context.Context, automationID, itemID string) error {
	err := s.client.SAdd(ctx, s.key(automationID), itemID).Err()
	if err != nil {
		return fmt.Errorf("failed to mark item seen: %w", err)
	}

	return nil
}

func (s *RedisStore) Size(ctx context.Context, automationID string) (int, error) {
	size, err := s.client.SCard(ctx, s.key(automationID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read seen-state size: %w", err)
	}

	return int(size), nil
}

func (s *RedisStore) Clear(ctx context.Context, automationID string) error {
	err := s.client.Del(ctx, s.key(automationID)).Err()
	if err != nil {
		return fmt.Errorf("failed to clear seen-state: %w", err)
	}

	return nil
}
