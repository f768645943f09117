package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"settlement-service/internal/models"

	"github.com/redis/go-redis/v9"
)

// SnapshotCache mirrors the latest consensus snapshot per hazard into Redis
// so sibling services can read oracle state without touching the board.
// Writes are best effort; the board stays the source of truth.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(hazardID string) string {
	return fmt.Sprintf("oracle:snapshot:%s", hazardID)
}

func (c *SnapshotCache) Store(ctx context.Context, snapshot models.ConsensusSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey(snapshot.HazardID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot for %s: %w", snapshot.HazardID, err)
	}
	return nil
}

func (c *SnapshotCache) Get(ctx context.Context, hazardID string) (*models.ConsensusSnapshot, error) {
	payload, err := c.client.Get(ctx, snapshotKey(hazardID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read cached snapshot for %s: %w", hazardID, err)
	}
	var snapshot models.ConsensusSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached snapshot for %s: %w", hazardID, err)
	}
	return &snapshot, nil
}
