package fetcher

import "time"

// 程序拉取默认值
const (
	// defaultMaxProgramSize 程序二进制上限 64MB
	defaultMaxProgramSize int64 = 64 << 20

	// defaultTimeout 单次拉取超时
	defaultTimeout = 60 * time.Second

	// defaultIPFSGateway ipfs:// 位置解析网关
	defaultIPFSGateway = "https://ipfs.io/ipfs/"

	// defaultAllowLocalPaths 允许 file:// 与裸路径
	defaultAllowLocalPaths = true

	// CacheMemory 进程内缓存（BigCache）
	CacheMemory = "memory"
	// CacheRedis 共享缓存（Redis）
	CacheRedis = "redis"
	// CacheNone 不缓存
	CacheNone = "none"

	defaultCacheBackend = CacheMemory
	defaultCacheTTL     = 30 * time.Minute
)
