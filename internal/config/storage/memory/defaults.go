package memory

import "time"

// 内存缓存默认配置值
const (
	// defaultLifeWindow 条目存活时间窗口
	defaultLifeWindow = 30 * time.Minute

	// defaultCleanWindow 过期清理间隔
	defaultCleanWindow = 5 * time.Minute

	// defaultShards 分片数（必须为2的幂）
	defaultShards = 64

	// defaultMaxEntrySize 初始条目大小估计（字节），压缩后的程序通常在该量级
	defaultMaxEntrySize = 512 << 10

	// defaultMaxEntriesInWindow 时间窗口内的条目估计
	defaultMaxEntriesInWindow = 256

	// defaultHardMaxCacheSizeMB 缓存硬上限
	defaultHardMaxCacheSizeMB = 512
)
