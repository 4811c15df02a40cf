// Package redis 提供 Redis 缓存的初始化与 CacheService 实现
// 使用 github.com/redis/go-redis/v9 作为底层客户端
package redis

import (
	"context"
	"strconv"
	"time"

	"direct_chat_server/internal/config"
	"direct_chat_server/pkg/constants"
	"direct_chat_server/pkg/errorx"

	"github.com/redis/go-redis/v9"
)

// Init 根据配置创建 Redis 客户端并启动缓存 Worker Pool
// 启动时 PING 一次，连接失败直接返回错误
func Init(conf *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Host + ":" + strconv.Itoa(conf.Port),
		Password: conf.Password, // 无密码留空
		DB:       conf.Db,
		// 连接池配置
		PoolSize:     50,
		MinIdleConns: constants.CACHE_WORKER_NUM, // 与 Worker 数量匹配
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errorx.Wrap(err, errorx.CodeCacheError, "redis ping")
	}

	return NewRedisCache(client, constants.CACHE_WORKER_NUM, constants.CACHE_TASK_BUFFER), nil
}
