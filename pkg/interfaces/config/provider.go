// Package config provides configuration provider interfaces.
package config

import (
	apiconfig "github.com/weisyn/coprocessor/internal/config/api"
	engineconfig "github.com/weisyn/coprocessor/internal/config/engine"
	fetcherconfig "github.com/weisyn/coprocessor/internal/config/fetcher"
	logconfig "github.com/weisyn/coprocessor/internal/config/log"
	pipelineconfig "github.com/weisyn/coprocessor/internal/config/pipeline"
	registryconfig "github.com/weisyn/coprocessor/internal/config/registry"
	badgerconfig "github.com/weisyn/coprocessor/internal/config/storage/badger"
	memoryconfig "github.com/weisyn/coprocessor/internal/config/storage/memory"
	redisconfig "github.com/weisyn/coprocessor/internal/config/storage/redis"
	"github.com/weisyn/coprocessor/pkg/types"
)

// Provider 配置提供者接口
type Provider interface {
	// === 核心配置 ===

	// GetLog 获取日志配置
	GetLog() *logconfig.LogOptions

	// GetRegistry 获取程序注册表配置（已应用 ETH_RPC_URL / REGISTRY_CONTRACT_ADDRESS）
	GetRegistry() *registryconfig.RegistryOptions

	// GetFetcher 获取程序拉取配置
	GetFetcher() *fetcherconfig.FetcherOptions

	// GetEngine 获取证明引擎配置（已应用 TEMP_DIR_BASE）
	GetEngine() *engineconfig.EngineOptions

	// GetPipeline 获取流水线配置
	GetPipeline() *pipelineconfig.PipelineOptions

	// GetAPI 获取API服务配置
	GetAPI() *apiconfig.APIOptions

	// === 存储引擎配置 ===

	// GetBadger 获取BadgerDB存储配置
	GetBadger() *badgerconfig.BadgerOptions

	// GetMemory 获取内存缓存配置
	GetMemory() *memoryconfig.MemoryOptions

	// GetRedis 获取Redis缓存配置
	GetRedis() *redisconfig.RedisOptions

	// === 原始配置访问 ===

	// GetAppConfig 获取原始应用配置
	GetAppConfig() *types.AppConfig
}
