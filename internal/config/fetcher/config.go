// Package fetcher 提供程序拉取配置
package fetcher

import (
	"strings"
	"time"

	configtypes "github.com/weisyn/coprocessor/pkg/types"
)

// FetcherOptions 程序拉取配置选项
type FetcherOptions struct {
	MaxProgramSize  int64         `json:"max_program_size"`  // 字节
	Timeout         time.Duration `json:"timeout"`           // 单次拉取超时（共享传输也受此限制）
	IPFSGateway     string        `json:"ipfs_gateway"`      // IPFS HTTP网关前缀
	AllowLocalPaths bool          `json:"allow_local_paths"` // 是否允许本地路径
	CacheBackend    string        `json:"cache_backend"`     // memory | redis | none
	CacheTTL        time.Duration `json:"cache_ttl"`         // 已验证程序缓存时长
}

// Config 程序拉取配置实现
type Config struct {
	options *FetcherOptions
}

// New 创建程序拉取配置
func New(userConfig interface{}) *Config {
	options := &FetcherOptions{
		MaxProgramSize:  defaultMaxProgramSize,
		Timeout:         defaultTimeout,
		IPFSGateway:     defaultIPFSGateway,
		AllowLocalPaths: defaultAllowLocalPaths,
		CacheBackend:    defaultCacheBackend,
		CacheTTL:        defaultCacheTTL,
	}
	if userConfig != nil {
		applyUserConfig(options, userConfig)
	}
	return &Config{options: options}
}

func applyUserConfig(options *FetcherOptions, userConfig interface{}) {
	cfg, ok := userConfig.(*configtypes.UserFetcherConfig)
	if !ok || cfg == nil {
		return
	}
	if cfg.MaxProgramSize != nil && *cfg.MaxProgramSize > 0 {
		options.MaxProgramSize = *cfg.MaxProgramSize
	}
	if cfg.Timeout != nil {
		if d, err := time.ParseDuration(*cfg.Timeout); err == nil && d > 0 {
			options.Timeout = d
		}
	}
	if cfg.IPFSGateway != nil && *cfg.IPFSGateway != "" {
		gw := *cfg.IPFSGateway
		if !strings.HasSuffix(gw, "/") {
			gw += "/"
		}
		options.IPFSGateway = gw
	}
	if cfg.AllowLocalPaths != nil {
		options.AllowLocalPaths = *cfg.AllowLocalPaths
	}
	if cfg.CacheBackend != nil {
		switch b := strings.ToLower(*cfg.CacheBackend); b {
		case CacheMemory, CacheRedis, CacheNone:
			options.CacheBackend = b
		}
	}
	if cfg.CacheTTL != nil {
		if d, err := time.ParseDuration(*cfg.CacheTTL); err == nil && d >= 0 {
			options.CacheTTL = d
		}
	}
}

// GetOptions 获取程序拉取配置选项
func (c *Config) GetOptions() *FetcherOptions {
	return c.options
}
