package statcache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "taskapi:stats:user:"

// Summary 用户任务统计摘要。
type Summary struct {
	Total          int64 `json:"total"`
	Completed      int64 `json:"completed"`
	Pending        int64 `json:"pending"`
	CompletionRate int64 `json:"completionRate"`
}

// Cache 以用户为键缓存统计摘要。
//
// 任何任务写操作都必须调用 Invalidate，否则缓存会在 TTL 内返回过期数据。
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New 创建统计缓存。ttl <= 0 时使用 30 秒。
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{
		rdb: rdb,
		ttl: ttl,
	}
}

// Get 读取缓存的摘要，未命中返回 (nil, nil)。
func (c *Cache) Get(ctx context.Context, userID uint) (*Summary, error) {
	if c == nil || c.rdb == nil {
		return nil, nil
	}
	raw, err := c.rdb.Get(ctx, userKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("statcache get: %w", err)
	}
	var s Summary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("statcache decode: %w", err)
	}
	return &s, nil
}

// Set 写入摘要。
func (c *Cache) Set(ctx context.Context, userID uint, s *Summary) error {
	if c == nil || c.rdb == nil || s == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("statcache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, userKey(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("statcache set: %w", err)
	}
	return nil
}

// Invalidate 删除某用户的缓存条目。
func (c *Cache) Invalidate(ctx context.Context, userID uint) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, userKey(userID)).Err(); err != nil {
		return fmt.Errorf("statcache del: %w", err)
	}
	return nil
}

func userKey(userID uint) string {
	return keyPrefix + strconv.FormatUint(uint64(userID), 10)
}
