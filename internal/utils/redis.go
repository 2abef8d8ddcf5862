// 包 utils：数据库与 Redis 连接工具
package utils

import (
	"h3-perf/internal/config"
	"h3-perf/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedis：仅在配置了进度频道时创建客户端，否则返回 nil
func OpenRedis(c *config.Config) *redis.Client {
	if c.ProgressChannel == "" {
		return nil
	}
	logger.L().Debug("redis_env", "addr", c.RedisAddr(), "db", c.RedisDB)
	return redis.NewClient(&redis.Options{Addr: c.RedisAddr(), Password: c.RedisPass, DB: c.RedisDB})
}
