// Package badger 提供基于BadgerDB的存储实现
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"

	badgerconfig "github.com/weisyn/coprocessor/internal/config/storage/badger"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	interfaces "github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/storage"
)

// ErrStoreClosing 存储正在关闭，拒绝写入
var ErrStoreClosing = errors.New("badger store is closing")

// closeWaitTimeout 关闭时等待在途写事务的上限
const closeWaitTimeout = 30 * time.Second

// Store 实现BadgerStore接口
type Store struct {
	db      *badgerdb.DB
	options *badgerconfig.BadgerOptions
	logger  log.Logger

	// 避免 Close 过程中仍被写入
	closing int32
	writeWg sync.WaitGroup
}

var _ interfaces.BadgerStore = (*Store)(nil)

// New 打开BadgerDB
//
// 磁盘模式下确保数据目录存在；InMemory 模式不落盘。
func New(options *badgerconfig.BadgerOptions, logger log.Logger) (*Store, error) {
	if options == nil {
		options = badgerconfig.New(nil).GetOptions()
	}

	var opts badgerdb.Options
	if options.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
		if logger != nil {
			logger.Info("使用内存BadgerDB（数据不持久化）")
		}
	} else {
		if err := os.MkdirAll(options.Path, 0o700); err != nil {
			return nil, fmt.Errorf("create badger dir %s: %w", options.Path, err)
		}
		opts = badgerdb.DefaultOptions(options.Path)
		opts.SyncWrites = options.SyncWrites
		if logger != nil {
			logger.Infof("初始化BadgerDB存储，数据目录: %s", options.Path)
		}
	}
	if options.MemTableSize > 0 {
		opts.MemTableSize = options.MemTableSize
	}
	// 注册表数据量很小，收紧缓存与vlog占用
	opts.ValueLogFileSize = 64 << 20
	opts.BlockCacheSize = 16 << 20
	opts.IndexCacheSize = 8 << 20
	opts.NumMemtables = 2
	opts.NumCompactors = 2
	opts.Logger = newBadgerLogger(logger)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db, options: options, logger: logger}, nil
}

// Close 关闭存储并释放资源
func (s *Store) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closing, 0, 1) {
		return nil
	}

	waitCh := make(chan struct{})
	go func() {
		s.writeWg.Wait()
		close(waitCh)
	}()
	select {
	case <-waitCh:
	case <-time.After(closeWaitTimeout):
		if s.logger != nil {
			s.logger.Warn("等待在途写事务超时，继续关闭BadgerDB")
		}
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("关闭BadgerDB失败: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("BadgerDB存储已关闭")
	}
	return nil
}

func (s *Store) beginWrite() (func(), error) {
	if atomic.LoadInt32(&s.closing) == 1 {
		return nil, ErrStoreClosing
	}
	s.writeWg.Add(1)
	// double-check，避免在 Add 之后进入 closing
	if atomic.LoadInt32(&s.closing) == 1 {
		s.writeWg.Done()
		return nil, ErrStoreClosing
	}
	return s.writeWg.Done, nil
}

// Get 获取指定键的值
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var val []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		val, err = (&transaction{txn: txn}).Get(key)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("badger获取键失败: %w", err)
	}
	return val, nil
}

// Set 设置键值对
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	return s.RunInTransaction(ctx, func(tx interfaces.BadgerTransaction) error {
		return tx.Set(key, value)
	})
}

// Delete 删除指定键的值
func (s *Store) Delete(ctx context.Context, key []byte) error {
	return s.RunInTransaction(ctx, func(tx interfaces.BadgerTransaction) error {
		return tx.Delete(key)
	})
}

// Exists 检查键是否存在
func (s *Store) Exists(ctx context.Context, key []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var exists bool
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		exists, err = (&transaction{txn: txn}).Exists(key)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("badger检查键存在性失败: %w", err)
	}
	return exists, nil
}

// PrefixScan 按前缀扫描键值对
func (s *Store) PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[string(item.KeyCopy(nil))] = val
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger前缀扫描失败: %w", err)
	}
	return result, nil
}

// RunInTransaction 在读写事务中执行操作
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx interfaces.BadgerTransaction) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return fn(&transaction{txn: txn})
	})
}

// transaction 事务适配
type transaction struct {
	txn *badgerdb.Txn
}

func (t *transaction) Get(key []byte) ([]byte, error) {
	item, err := t.txn.Get(key)
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *transaction) Set(key, value []byte) error {
	return t.txn.Set(key, value)
}

func (t *transaction) Delete(key []byte) error {
	return t.txn.Delete(key)
}

func (t *transaction) Exists(key []byte) (bool, error) {
	_, err := t.txn.Get(key)
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}
