package database

import (
	"context"
	"fmt"

	"chat_relay_service/pkg/config"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient connect redis, through sentinel when sentinels are configured
func NewRedisClient(ctx context.Context, c config.RedisConfig) (*redis.Client, error) {
	var rdb *redis.Client
	if len(c.Sentinels) > 0 {
		masterName := c.MasterName
		if masterName == "" {
			masterName = "mymaster"
		}
		rdb = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    masterName,
			SentinelAddrs: c.Sentinels,
			Password:      c.Password,
			DB:            c.RedisDB,
		})
	} else {
		rdb = redis.NewClient(&redis.Options{
			Addr:     c.Addr,
			Password: c.Password,
			DB:       c.RedisDB,
		})
	}

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}
