package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// playheadKey 单工程，固定键
const playheadKey = "clipcut:playhead"

// playheadTTL 快照只为断线重连/进程重启后的续播服务，过期即弃
const playheadTTL = 24 * time.Hour

// PlayheadSnapshot 播放头快照（易失状态，不是工程持久化）
type PlayheadSnapshot struct {
	CurrentTime float64 `json:"currentTime"` // 秒
	IsPlaying   bool    `json:"isPlaying"`
	UpdatedAt   int64   `json:"updatedAt"` // 毫秒时间戳
}

// PlayheadCache 播放头快照缓存
type PlayheadCache struct {
	client *redis.Client
}

// NewPlayheadCache 基于全局客户端创建缓存
func NewPlayheadCache() *PlayheadCache {
	return &PlayheadCache{client: RedisClient}
}

// Save 写入快照并刷新 TTL
func (c *PlayheadCache) Save(ctx context.Context, snap PlayheadSnapshot) error {
	if c.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	snap.UpdatedAt = time.Now().UnixMilli()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal playhead snapshot: %w", err)
	}

	if err := c.client.Set(ctx, playheadKey, data, playheadTTL).Err(); err != nil {
		return fmt.Errorf("failed to save playhead snapshot: %w", err)
	}
	return nil
}

// Load 读取快照；不存在时 ok 为 false，不算错误
func (c *PlayheadCache) Load(ctx context.Context) (PlayheadSnapshot, bool, error) {
	if c.client == nil {
		return PlayheadSnapshot{}, false, fmt.Errorf("redis client not initialized")
	}

	data, err := c.client.Get(ctx, playheadKey).Bytes()
	if err == redis.Nil {
		return PlayheadSnapshot{}, false, nil
	}
	if err != nil {
		return PlayheadSnapshot{}, false, fmt.Errorf("failed to load playhead snapshot: %w", err)
	}

	var snap PlayheadSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return PlayheadSnapshot{}, false, fmt.Errorf("failed to unmarshal playhead snapshot: %w", err)
	}
	return snap, true, nil
}

// Clear 删除快照
func (c *PlayheadCache) Clear(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return c.client.Del(ctx, playheadKey).Err()
}
