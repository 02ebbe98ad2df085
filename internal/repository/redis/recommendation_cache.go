package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"policyPortal/business/recommender"
	"policyPortal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	generationKey   = "reco:generation"
	defaultCacheTTL = 10 * time.Minute
)

// RecommendationCache stores ranked shortlists. Catalog and profile writes
// bump a shared generation counter, which orphans every existing entry
// without scanning keys; the TTL reclaims them.
type RecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecommendationCache(client *redis.Client, ttl time.Duration) *RecommendationCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RecommendationCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RecommendationCache) Get(ctx context.Context, key recommender.CacheKey) ([]domain.ScoredPolicy, bool, error) {
	val, err := c.client.Get(ctx, entryKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get recommendations from Redis: %w", err)
	}

	var recs []domain.ScoredPolicy
	if err := json.Unmarshal(val, &recs); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached recommendations: %w", err)
	}

	return recs, true, nil
}

// Set writes under key.Generation as read before ranking. If the counter
// moved since, the entry is orphaned instead of served.
func (c *RecommendationCache) Set(ctx context.Context, key recommender.CacheKey, recs []domain.ScoredPolicy) error {
	raw, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	if err := c.client.Set(ctx, entryKey(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store recommendations in Redis: %w", err)
	}

	return nil
}

// Invalidate bumps the generation counter.
func (c *RecommendationCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to bump recommendation generation: %w", err)
	}
	return nil
}

// Generation returns the current catalog generation, 0 before the first write.
func (c *RecommendationCache) Generation(ctx context.Context) (int64, error) {
	val, err := c.client.Get(ctx, generationKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read recommendation generation: %w", err)
	}

	gen, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt recommendation generation %q: %w", val, err)
	}
	return gen, nil
}

// key format: "reco:u{user_id}:g{generation}:v{model_version}:n{top_n}"
func entryKey(k recommender.CacheKey) string {
	return fmt.Sprintf("reco:u%d:g%d:v%d:n%d", k.UserID, k.Generation, k.ModelVersion, k.TopN)
}

var _ recommender.RecommendationCache = (*RecommendationCache)(nil)
