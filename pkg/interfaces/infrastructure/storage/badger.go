// Package storage 提供存储接口定义
//
// 💾 **存储服务**
//
// - BadgerStore：本地程序注册表的持久化键值存储
// - ProgramCache：已校验程序二进制的缓存（内存 BigCache 或共享 Redis）
package storage

import "context"

// BadgerStore 键值存储接口
type BadgerStore interface {
	// Close 关闭数据库连接，应用关闭时必须调用
	Close() error

	// Get 获取指定键的值
	// 如果键不存在，返回nil值和nil错误
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set 设置键值对，已存在则覆盖
	Set(ctx context.Context, key, value []byte) error

	// Delete 删除指定键的值，键不存在不报错
	Delete(ctx context.Context, key []byte) error

	// Exists 检查键是否存在
	Exists(ctx context.Context, key []byte) (bool, error)

	// PrefixScan 按前缀扫描键值对
	// 返回map的键为键的字符串表示
	PrefixScan(ctx context.Context, prefix []byte) (map[string][]byte, error)

	// RunInTransaction 在读写事务中执行操作
	// fn返回错误时事务回滚，否则提交
	RunInTransaction(ctx context.Context, fn func(tx BadgerTransaction) error) error
}

// BadgerTransaction 事务内的键值操作
type BadgerTransaction interface {
	// Get 键不存在时返回nil值和nil错误
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Exists(key []byte) (bool, error)
}
