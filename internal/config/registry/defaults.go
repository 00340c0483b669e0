package registry

import "time"

// 注册表配置默认值
const (
	// ModeEth 链上合约注册表
	ModeEth = "eth"
	// ModeLocal 本地BadgerDB注册表
	ModeLocal = "local"

	// defaultMode 未配置RPC时使用本地注册表
	defaultMode = ModeLocal

	// defaultRPCURL 本地开发节点
	defaultRPCURL = "http://127.0.0.1:8545"

	// defaultCallTimeout 单次合约调用超时
	defaultCallTimeout = 10 * time.Second

	// defaultMaxCachedClients 覆盖端点的客户端缓存上限
	defaultMaxCachedClients = 16
)
