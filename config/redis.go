package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a Redis client from the loaded configuration and
// verifies connectivity with a short ping. The reset-token store is the only
// consumer, so an unreachable Redis is a startup failure, not something to
// degrade around.
func NewRedisClient(cfg *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
