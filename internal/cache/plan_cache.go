// internal/cache/plan_cache.go

// Package cache stores completed orchestration results in Redis so repeated
// runs for an unchanged campaign skip the generation backend entirely.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	pipeerrors "content-orchestrator/internal/common/errors"
	"content-orchestrator/internal/common/logger"
	"content-orchestrator/internal/models"
)

const keyPrefix = "orchestration:plan:"

// PlanCache is a TTL-scoped cache keyed by campaign id. It satisfies
// pipeline.PlanCache.
type PlanCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewPlanCache(client *redis.Client, ttl time.Duration, log logger.Logger) *PlanCache {
	return &PlanCache{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

func planKey(campaignID string) string {
	return keyPrefix + campaignID
}

// Get returns the cached result for a campaign, or ok=false on a miss.
func (c *PlanCache) Get(ctx context.Context, campaignID string) (*models.ContentOrchestrationResult, bool, error) {
	raw, err := c.client.Get(ctx, planKey(campaignID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pipeerrors.NewCacheUnavailableError(err)
	}

	var result models.ContentOrchestrationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		// A corrupt entry is treated as a miss and evicted.
		c.logger.Warn("evicting unreadable cache entry", map[string]interface{}{
			"campaignId": campaignID,
			"error":      err.Error(),
		})
		c.client.Del(ctx, planKey(campaignID))
		return nil, false, nil
	}

	return &result, true, nil
}

// Put stores a result under its campaign id with the configured TTL.
func (c *PlanCache) Put(ctx context.Context, result *models.ContentOrchestrationResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := c.client.Set(ctx, planKey(result.CampaignID), raw, c.ttl).Err(); err != nil {
		return pipeerrors.NewCacheUnavailableError(err)
	}
	return nil
}

// Invalidate drops the cached plan for a campaign.
func (c *PlanCache) Invalidate(ctx context.Context, campaignID string) error {
	if err := c.client.Del(ctx, planKey(campaignID)).Err(); err != nil {
		return pipeerrors.NewCacheUnavailableError(err)
	}
	return nil
}
