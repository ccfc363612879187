package cache

import (
	"context"
	"fmt"
	"time"

	"clipcut/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient 全局 Redis 客户端
var RedisClient *redis.Client

// Connect 初始化 Redis 连接
func Connect(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

// Close 关闭 Redis 连接
func Close() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// Ping 连通性检查（redis 子命令用）
func Ping(ctx context.Context) error {
	if RedisClient == nil {
		return fmt.Errorf("redis client not initialized")
	}
	_, err := RedisClient.Ping(ctx).Result()
	return err
}
