// Package redis 提供基于Redis的共享程序缓存
//
// 多个服务实例共享同一份已校验程序，键为 {prefix}{program hash hex}。
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/snappy"

	redisconfig "github.com/weisyn/coprocessor/internal/config/storage/redis"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	storage "github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/storage"
)

// pingTimeout 创建时的连通性检查超时
const pingTimeout = 5 * time.Second

// Store 实现ProgramCache接口
type Store struct {
	client redisClient
	prefix string
	ttl    time.Duration
	logger log.Logger
}

var _ storage.ProgramCache = (*Store)(nil)

// NewFromOptions 从配置创建 Redis 缓存并检查连通性
func NewFromOptions(options *redisconfig.RedisOptions, ttl time.Duration, logger log.Logger) (*Store, error) {
	client, err := newGoRedisClient(options)
	if err != nil {
		return nil, err
	}
	store, err := NewStore(client, options.Prefix, ttl, logger)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return store, nil
}

// NewStore 基于已有客户端创建缓存
func NewStore(client redisClient, prefix string, ttl time.Duration, logger log.Logger) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Store{client: client, prefix: prefix, ttl: ttl, logger: logger}, nil
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// Get 获取并解压
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	compressed, ok, err := s.client.Get(ctx, s.key(key))
	if err != nil || !ok {
		return nil, false, err
	}
	value, err := snappy.Decode(nil, compressed)
	if err != nil {
		_ = s.client.Del(ctx, s.key(key))
		return nil, false, fmt.Errorf("decode cached entry %s: %w", key, err)
	}
	return value, true, nil
}

// Set 压缩写入，TTL 为 0 表示不过期
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.key(key), snappy.Encode(nil, value), s.ttl)
}

// Delete 删除条目
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key))
}

// Close 关闭连接
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("关闭Redis程序缓存")
	}
	return s.client.Close()
}
