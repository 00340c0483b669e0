package storage

import "context"

// ProgramCache 已校验程序的缓存
//
// 只存放摘要与键哈希一致的字节；读取方仍需自行校验。
type ProgramCache interface {
	// Get 命中时返回 (value, true, nil)，未命中返回 (nil, false, nil)
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set 写入缓存，超出容量的条目可以被静默丢弃
	Set(ctx context.Context, key string, value []byte) error

	// Delete 删除条目
	Delete(ctx context.Context, key string) error

	// Close 释放资源
	Close() error
}
