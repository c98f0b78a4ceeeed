package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ampera/backend/services/triage-service/internal/models"
)

// SnapshotKey is the redis key the dashboard service publishes its derived
// payload under. Key contract is shared between the two services.
const SnapshotKey = "dashboard:snapshot"

// SnapshotReader loads the cached fleet snapshot.
type SnapshotReader struct {
	client *redis.Client
}

// NewSnapshotReader returns a redis-backed snapshot reader.
func NewSnapshotReader(client *redis.Client) *SnapshotReader {
	return &SnapshotReader{client: client}
}

// Load returns the cached snapshot, or nil when none is cached.
func (r *SnapshotReader) Load(ctx context.Context) (*models.FleetSnapshot, error) {
	result, err := r.client.Get(ctx, SnapshotKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache: load snapshot: %w", err)
	}
	var snapshot models.FleetSnapshot
	if err := json.Unmarshal([]byte(result), &snapshot); err != nil {
		return nil, fmt.Errorf("cache: decode snapshot: %w", err)
	}
	return &snapshot, nil
}
