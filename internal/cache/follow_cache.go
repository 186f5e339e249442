package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/recipehub/pkg/logger"
)

// FollowLists is the cached part of a user profile: who follows the user and
// whom the user follows.
type FollowLists struct {
	FollowerIDs  []int64 `json:"follower_ids"`
	FollowingIDs []int64 `json:"following_ids"`
}

// FollowCache is a read-through cache for profile follow lists. Entries are
// dropped after every follow-graph mutation touching the user, so a reader
// never sees an edge set older than the last committed toggle.
type FollowCache struct {
	client *redis.Client
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewFollowCache returns nil when client is nil; all methods accept a nil receiver.
func NewFollowCache(client *redis.Client, ttl time.Duration) *FollowCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &FollowCache{client: client, ttl: ttl}
}

func key(userID int64) string { return fmt.Sprintf("follows:profile:%d", userID) }

// Get loads the lists from redis, falling back to load on a miss or a broken entry.
func (c *FollowCache) Get(ctx context.Context, userID int64, load func(ctx context.Context) (*FollowLists, error)) (*FollowLists, error) {
	if c == nil {
		return load(ctx)
	}
	if data, err := c.client.Get(ctx, key(userID)).Bytes(); err == nil {
		var out FollowLists
		if uErr := json.Unmarshal(data, &out); uErr == nil {
			c.hits.Add(1)
			return &out, nil
		}
	}

	c.misses.Add(1)
	lists, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(lists); err == nil {
		if err := c.client.Set(ctx, key(userID), payload, c.ttl).Err(); err != nil {
			logger.Warn("follow cache set failed", zap.Int64("user", userID), zap.Error(err))
		}
	}
	return lists, nil
}

// Invalidate drops the entries of every given user.
func (c *FollowCache) Invalidate(ctx context.Context, userIDs ...int64) {
	if c == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = key(id)
	}
	pipe := c.client.Pipeline()
	pipe.Del(ctx, keys...)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("follow cache invalidate failed", zap.Int64s("users", userIDs), zap.Error(err))
	}
}

// Counters reports cache hits and misses since creation or the last reset.
func (c *FollowCache) Counters() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

// ResetCounters clears recorded hit/miss counters.
func (c *FollowCache) ResetCounters() {
	if c == nil {
		return
	}
	c.hits.Store(0)
	c.misses.Store(0)
}
