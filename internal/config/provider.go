package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/coprocessor/internal/config/api"
	"github.com/weisyn/coprocessor/internal/config/engine"
	"github.com/weisyn/coprocessor/internal/config/fetcher"
	"github.com/weisyn/coprocessor/internal/config/log"
	"github.com/weisyn/coprocessor/internal/config/pipeline"
	"github.com/weisyn/coprocessor/internal/config/registry"
	"github.com/weisyn/coprocessor/internal/config/storage/badger"
	"github.com/weisyn/coprocessor/internal/config/storage/memory"
	"github.com/weisyn/coprocessor/internal/config/storage/redis"
	"github.com/weisyn/coprocessor/pkg/interfaces/config"
	"github.com/weisyn/coprocessor/pkg/types"
)

// 环境变量覆盖
const (
	EnvEthRPCURL       = "ETH_RPC_URL"
	EnvRegistryAddress = "REGISTRY_CONTRACT_ADDRESS"
	EnvTempDirBase     = "TEMP_DIR_BASE"
)

// Provider 实现配置提供者接口
type Provider struct {
	appConfig *types.AppConfig
	getenv    func(string) string
}

// NewProvider 创建配置提供者
func NewProvider(appConfig *types.AppConfig) config.Provider {
	return newProvider(appConfig, os.Getenv)
}

func newProvider(appConfig *types.AppConfig, getenv func(string) string) *Provider {
	if appConfig == nil {
		appConfig = &types.AppConfig{}
	}
	return &Provider{appConfig: appConfig, getenv: getenv}
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *log.LogOptions {
	return log.New(p.appConfig.Log).GetOptions()
}

// GetRegistry 获取注册表配置
//
// 环境变量优先于配置文件：设置 ETH_RPC_URL 即切换为链上注册表。
func (p *Provider) GetRegistry() *registry.RegistryOptions {
	options := registry.New(p.appConfig.Registry).GetOptions()
	if rpcURL := strings.TrimSpace(p.getenv(EnvEthRPCURL)); rpcURL != "" {
		options.RPCURL = rpcURL
		options.Mode = registry.ModeEth
	}
	if addr := strings.TrimSpace(p.getenv(EnvRegistryAddress)); common.IsHexAddress(addr) {
		options.ContractAddress = common.HexToAddress(addr)
	}
	return options
}

// GetFetcher 获取程序拉取配置
func (p *Provider) GetFetcher() *fetcher.FetcherOptions {
	return fetcher.New(p.appConfig.Fetcher).GetOptions()
}

// GetEngine 获取证明引擎配置
func (p *Provider) GetEngine() *engine.EngineOptions {
	options := engine.New(p.appConfig.Engine).GetOptions()
	if dir := strings.TrimSpace(p.getenv(EnvTempDirBase)); dir != "" {
		options.WorkDir = dir
	}
	return options
}

// GetPipeline 获取流水线配置
func (p *Provider) GetPipeline() *pipeline.PipelineOptions {
	return pipeline.New(p.appConfig.Pipeline).GetOptions()
}

// GetAPI 获取API服务配置
func (p *Provider) GetAPI() *api.APIOptions {
	return api.New(p.appConfig.API).GetOptions()
}

// === 存储引擎配置方法 ===

// GetBadger 获取BadgerDB存储配置
func (p *Provider) GetBadger() *badger.BadgerOptions {
	options := badger.New(p.appConfig.Storage).GetOptions()
	// 未单独配置 data_root 时跟随应用 data_dir
	if (p.appConfig.Storage == nil || p.appConfig.Storage.DataRoot == nil) && p.appConfig.DataDir != nil && *p.appConfig.DataDir != "" {
		options.Path = filepath.Join(*p.appConfig.DataDir, "badger")
	}
	return options
}

// GetMemory 获取内存缓存配置
func (p *Provider) GetMemory() *memory.MemoryOptions {
	options := memory.New(p.appConfig.Storage).GetOptions()
	// 缓存时间窗口跟随 fetcher.cache_ttl
	if ttl := p.GetFetcher().CacheTTL; ttl > 0 && (p.appConfig.Storage == nil || p.appConfig.Storage.MemoryLifeWindow == nil) {
		options.LifeWindow = ttl
	}
	return options
}

// GetRedis 获取Redis缓存配置
func (p *Provider) GetRedis() *redis.RedisOptions {
	return redis.New(p.appConfig.Storage).GetOptions()
}

// GetAppConfig 获取原始应用配置
func (p *Provider) GetAppConfig() *types.AppConfig {
	return p.appConfig
}
