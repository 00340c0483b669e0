// Package memory 提供内存缓存配置
package memory

import (
	"time"

	configtypes "github.com/weisyn/coprocessor/pkg/types"
)

// MemoryOptions 内存缓存配置选项
type MemoryOptions struct {
	LifeWindow         time.Duration `json:"life_window"`
	CleanWindow        time.Duration `json:"clean_window"`
	Shards             int           `json:"shards"`
	MaxEntrySize       int           `json:"max_entry_size"`
	MaxEntriesInWindow int           `json:"max_entries_in_window"`
	HardMaxCacheSizeMB int           `json:"hard_max_cache_size_mb"`
}

// Config 内存缓存配置实现
type Config struct {
	options *MemoryOptions
}

// New 创建内存缓存配置
func New(userConfig interface{}) *Config {
	options := &MemoryOptions{
		LifeWindow:         defaultLifeWindow,
		CleanWindow:        defaultCleanWindow,
		Shards:             defaultShards,
		MaxEntrySize:       defaultMaxEntrySize,
		MaxEntriesInWindow: defaultMaxEntriesInWindow,
		HardMaxCacheSizeMB: defaultHardMaxCacheSizeMB,
	}
	if cfg, ok := userConfig.(*configtypes.UserStorageConfig); ok && cfg != nil {
		if cfg.MemoryLifeWindow != nil {
			if d, err := time.ParseDuration(*cfg.MemoryLifeWindow); err == nil && d > 0 {
				options.LifeWindow = d
			}
		}
		if cfg.MemoryMaxEntrySize != nil && *cfg.MemoryMaxEntrySize > 0 {
			options.MaxEntrySize = *cfg.MemoryMaxEntrySize
		}
		if cfg.MemoryHardMaxMB != nil && *cfg.MemoryHardMaxMB >= 0 {
			options.HardMaxCacheSizeMB = *cfg.MemoryHardMaxMB
		}
	}
	return &Config{options: options}
}

// GetOptions 获取内存缓存配置选项
func (c *Config) GetOptions() *MemoryOptions {
	return c.options
}
