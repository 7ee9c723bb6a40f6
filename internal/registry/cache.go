package registry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stdtrack/stdtrack/pkg/logger"
)

const standardsListKey = "standards:list"

// Cache is a best-effort Redis cache for the standards list, the one
// read on every page load. Misses and Redis errors fall through to the
// catalog; mutations invalidate.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) getList(ctx context.Context) ([]*Standard, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	b, err := c.client.Get(ctx, standardsListKey).Bytes()
	if err != nil {
		return nil, false
	}
	var out []*Standard
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *Cache) setList(ctx context.Context, list []*Standard) {
	if c == nil || c.client == nil {
		return
	}
	b, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, standardsListKey, b, c.ttl).Err(); err != nil {
		logger.Debugf("standards cache set failed: %v", err)
	}
}

func (c *Cache) invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, standardsListKey).Err(); err != nil {
		logger.Debugf("standards cache invalidate failed: %v", err)
	}
}
