package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pitchside/efootball-arena/models"
)

// LeaderboardCache keeps rendered leaderboard pages in Redis so the read
// path can skip the database between rank updates. A nil *LeaderboardCache
// is valid and turns every operation into a no-op cache miss.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LeaderboardCache{client: client, ttl: ttl}
}

func topKey(scope models.LeaderboardScopeType, period string, limit int) string {
	return fmt.Sprintf("leaderboard:top:%s:%s:%d", scope, period, limit)
}

func (c *LeaderboardCache) GetTop(ctx context.Context, scope models.LeaderboardScopeType, period string, limit int) ([]*models.LeaderboardEntry, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, topKey(scope, period, limit)).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []*models.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (c *LeaderboardCache) SetTop(ctx context.Context, scope models.LeaderboardScopeType, period string, limit int, entries []*models.LeaderboardEntry) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	c.client.Set(ctx, topKey(scope, period, limit), raw, c.ttl)
}

// Invalidate drops every cached page for the scope, regardless of limit.
func (c *LeaderboardCache) Invalidate(ctx context.Context, scope models.LeaderboardScopeType, period string) {
	if c == nil {
		return
	}
	pattern := fmt.Sprintf("leaderboard:top:%s:%s:*", scope, period)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
}
