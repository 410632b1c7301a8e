package service

import (
	"context"
	"encoding/json"
	"errors"

	"pokertable/internal/domain"
	"pokertable/pkg/redis"

	"go.uber.org/zap"
)

// CacheService provides cache-aside reads of table status views. Every
// mutation of a table bumps that table's cache generation, so a status
// computed before the mutation can never be served after it.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service. A nil client disables caching.
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

// Enabled reports whether a Redis client is configured
func (c *CacheService) Enabled() bool {
	return c != nil && c.redis != nil
}

// GetTableStatus returns the cached status of a table, computing it with load on a miss.
// Cache failures fall through to load.
func (c *CacheService) GetTableStatus(ctx context.Context, tableID int64, load func(ctx context.Context) (*domain.TableStatus, error)) (*domain.TableStatus, error) {
	if !c.Enabled() {
		return load(ctx)
	}

	kb := c.redis.KeyBuilder
	version, err := c.redis.GetInt64(ctx, kb.KeyTableStatusVersion(tableID))
	if err != nil {
		c.logger.Warn("Table status version lookup failed, bypassing cache",
			zap.Int64("table_id", tableID),
			zap.Error(err))
		return load(ctx)
	}

	key := kb.KeyTableStatus(tableID, version)
	cached, err := c.redis.Get(ctx, key)
	switch {
	case err == nil:
		var status domain.TableStatus
		jsonErr := json.Unmarshal([]byte(cached), &status)
		if jsonErr == nil {
			c.logger.Debug("Table status cache hit", zap.Int64("table_id", tableID))
			return &status, nil
		}
		c.logger.Warn("Table status cache corrupted, falling back to database",
			zap.Int64("table_id", tableID),
			zap.Error(jsonErr))
	case !errors.Is(err, redis.ErrCacheMiss):
		c.logger.Warn("Table status cache error, falling back to database",
			zap.Int64("table_id", tableID),
			zap.Error(err))
	}

	status, err := load(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(status)
	if err != nil {
		c.logger.Error("Failed to marshal table status", zap.Int64("table_id", tableID), zap.Error(err))
		return status, nil
	}
	if err := c.redis.Set(ctx, key, string(data), redis.TTLTableStatus); err != nil {
		c.logger.Warn("Failed to cache table status", zap.Int64("table_id", tableID), zap.Error(err))
	}
	return status, nil
}

// InvalidateTable starts a new cache generation for a table
func (c *CacheService) InvalidateTable(ctx context.Context, tableID int64) {
	if !c.Enabled() {
		return
	}

	if _, err := c.redis.IncrWithTTL(ctx, c.redis.KeyBuilder.KeyTableStatusVersion(tableID), redis.TTLTableVersion); err != nil {
		c.logger.Error("Failed to invalidate table status cache",
			zap.Int64("table_id", tableID),
			zap.Error(err))
		return
	}
	c.logger.Debug("Table status cache invalidated", zap.Int64("table_id", tableID))
}

// HealthCheck pings Redis when caching is enabled
func (c *CacheService) HealthCheck(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.redis.Health(ctx)
}
