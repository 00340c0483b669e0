// Package memory 提供基于BigCache的程序缓存实现
//
// 条目以 snappy 压缩后存放，ELF 的零填充段压缩率很高。
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/allegro/bigcache/v3"
	"github.com/golang/snappy"

	memoryconfig "github.com/weisyn/coprocessor/internal/config/storage/memory"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	storage "github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/storage"
)

// ErrStoreClosed 缓存已关闭
var ErrStoreClosed = errors.New("memory store is closed")

// Store 实现ProgramCache接口
type Store struct {
	cache  *bigcache.BigCache
	logger log.Logger
	mutex  sync.RWMutex
	closed bool
}

var _ storage.ProgramCache = (*Store)(nil)

// New 创建BigCache内存缓存
func New(ctx context.Context, options *memoryconfig.MemoryOptions, logger log.Logger) (*Store, error) {
	if options == nil {
		options = memoryconfig.New(nil).GetOptions()
	}

	cfg := bigcache.DefaultConfig(options.LifeWindow)
	cfg.CleanWindow = options.CleanWindow
	cfg.Shards = options.Shards
	cfg.MaxEntrySize = options.MaxEntrySize
	cfg.MaxEntriesInWindow = options.MaxEntriesInWindow
	cfg.HardMaxCacheSize = options.HardMaxCacheSizeMB
	cfg.Verbose = false

	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("创建BigCache实例失败: %w", err)
	}
	return &Store{cache: cache, logger: logger}, nil
}

// Get 获取并解压缓存值
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return nil, false, ErrStoreClosed
	}

	compressed, err := s.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	value, err := snappy.Decode(nil, compressed)
	if err != nil {
		// 损坏条目直接剔除
		_ = s.cache.Delete(key)
		return nil, false, fmt.Errorf("decode cached entry %s: %w", key, err)
	}
	return value, true, nil
}

// Set 压缩后写入缓存
//
// 条目超过分片容量时 BigCache 会拒绝写入，此时只记录日志。
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}

	if err := s.cache.Set(key, snappy.Encode(nil, value)); err != nil {
		if s.logger != nil {
			s.logger.Warnf("缓存写入被拒绝: key=%s size=%d err=%v", key, len(value), err)
		}
	}
	return nil
}

// Delete 删除条目
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	if err := s.cache.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return err
	}
	return nil
}

// Len 当前条目数
func (s *Store) Len() int {
	return s.cache.Len()
}

// Close 关闭缓存并释放资源
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.cache.Close()
}
