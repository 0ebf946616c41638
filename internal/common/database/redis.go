// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"travel-orchestrator/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// Redis is the client behind the redis session backend.
type Redis struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) *Redis {
	return &Redis{Client: redis.NewClient(redisOptions(cfg))}
}

// redisOptions sizes the pool for one GET and one SET per job; session
// payloads are small, so read and write deadlines stay tight.
func redisOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     20,
		MinIdleConns: 2,
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
