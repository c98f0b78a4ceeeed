package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ampera/backend/services/dashboard-service/internal/models"
)

// SnapshotKey is the shared redis key under which the latest derived payload
// is published for other services.
const SnapshotKey = "dashboard:snapshot"

// SnapshotStore caches the derived dashboard payload in redis.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotStore returns a redis-backed snapshot cache.
func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

// Save publishes the payload under the snapshot key with the configured TTL.
func (s *SnapshotStore) Save(ctx context.Context, payload *models.DashboardResponse) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("cache: marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, SnapshotKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache: store snapshot: %w", err)
	}
	return nil
}

// Load returns the cached payload, or nil when none is cached.
func (s *SnapshotStore) Load(ctx context.Context) (*models.DashboardResponse, error) {
	result, err := s.client.Get(ctx, SnapshotKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache: load snapshot: %w", err)
	}
	var payload models.DashboardResponse
	if err := json.Unmarshal([]byte(result), &payload); err != nil {
		return nil, fmt.Errorf("cache: decode snapshot: %w", err)
	}
	return &payload, nil
}
