package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	redisconfig "github.com/weisyn/coprocessor/internal/config/storage/redis"
)

// redisClient Redis 客户端接口（用于依赖注入和测试）
type redisClient interface {
	// Get 未命中返回 (nil, false, nil)
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// goRedisClient go-redis 客户端实现，本身并发安全
type goRedisClient struct {
	client *redis.Client
}

var _ redisClient = (*goRedisClient)(nil)

func newGoRedisClient(options *redisconfig.RedisOptions) (*goRedisClient, error) {
	if options == nil || options.Addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	return &goRedisClient{client: redis.NewClient(&redis.Options{
		Addr:         options.Addr,
		Password:     options.Password,
		DB:           options.DB,
		PoolSize:     options.PoolSize,
		DialTimeout:  options.DialTimeout,
		ReadTimeout:  options.ReadTimeout,
		WriteTimeout: options.WriteTimeout,
	})}, nil
}

func (c *goRedisClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *goRedisClient) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

func (c *goRedisClient) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *goRedisClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *goRedisClient) Close() error {
	return c.client.Close()
}
