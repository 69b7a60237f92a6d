package database

import (
	"context"
	"errors"
	"fmt"
	"story-server/shared/interfaces"
	"story-server/shared/models"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisNodeCache implements CurrentNodeCache.
var _ interfaces.CurrentNodeCache = (*redisNodeCache)(nil)

// redisNodeCache is a Redis-backed view of the cursor position per
// (player, story). It is never authoritative: Postgres is, and only accepted
// transitions write the pair's key.
type redisNodeCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisNodeCache creates a new Redis-backed CurrentNodeCache.
func NewRedisNodeCache(client *redis.Client, logger *zap.Logger) interfaces.CurrentNodeCache {
	return &redisNodeCache{
		client: client,
		logger: logger.Named("RedisNodeCache"),
	}
}

func nodeCacheKey(playerID, storyID uuid.UUID) string {
	return fmt.Sprintf("current_node:%s:%s", playerID, storyID)
}

// Get returns the cached current node ID, models.ErrNotFound on a miss.
func (c *redisNodeCache) Get(ctx context.Context, playerID, storyID uuid.UUID) (uuid.UUID, error) {
	key := nodeCacheKey(playerID, storyID)

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, models.ErrNotFound
		}
		c.logger.Warn("Failed to read node cache", zap.String("key", key), zap.Error(err))
		return uuid.Nil, fmt.Errorf("failed to read node cache: %w", err)
	}

	nodeID, err := uuid.Parse(val)
	if err != nil {
		// Corrupted entry, drop it and treat as a miss.
		c.logger.Warn("Corrupted node cache entry, invalidating", zap.String("key", key), zap.Error(err))
		c.client.Del(ctx, key)
		return uuid.Nil, models.ErrNotFound
	}
	return nodeID, nil
}

// Set stores the current node ID with a TTL.
func (c *redisNodeCache) Set(ctx context.Context, playerID, storyID, nodeID uuid.UUID, ttl time.Duration) error {
	key := nodeCacheKey(playerID, storyID)
	if err := c.client.Set(ctx, key, nodeID.String(), ttl).Err(); err != nil {
		c.logger.Warn("Failed to set node cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to set node cache: %w", err)
	}
	return nil
}

// Invalidate drops the pair's entry.
func (c *redisNodeCache) Invalidate(ctx context.Context, playerID, storyID uuid.UUID) error {
	key := nodeCacheKey(playerID, storyID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("Failed to invalidate node cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to invalidate node cache: %w", err)
	}
	return nil
}
