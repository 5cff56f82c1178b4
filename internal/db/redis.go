package db

import (
	"github.com/redis/go-redis/v9"

	"backend-skillpath/internal/config"
)

// ConnectRedis returns nil when no address is configured; callers fall back
// to in-process implementations.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}
