// Package badger 提供BadgerDB存储配置
package badger

import (
	"path/filepath"

	configtypes "github.com/weisyn/coprocessor/pkg/types"
)

// BadgerOptions BadgerDB存储配置选项
type BadgerOptions struct {
	Path         string `json:"path"`           // 数据库存储路径
	SyncWrites   bool   `json:"sync_writes"`    // 是否同步写入
	MemTableSize int64  `json:"mem_table_size"` // 内存表大小
	InMemory     bool   `json:"in_memory"`      // 纯内存模式（测试/一次性运行）
}

// Config BadgerDB配置实现
type Config struct {
	options *BadgerOptions
}

// New 创建BadgerDB配置实现
func New(userConfig interface{}) *Config {
	options := &BadgerOptions{
		Path:         defaultPath,
		SyncWrites:   defaultSyncWrites,
		MemTableSize: defaultMemTableSize,
		InMemory:     defaultInMemory,
	}
	if userConfig != nil {
		applyUserConfig(options, userConfig)
	}
	return &Config{options: options}
}

// NewFromOptions 从BadgerOptions创建配置实现
func NewFromOptions(options *BadgerOptions) *Config {
	return &Config{options: options}
}

// applyUserConfig 应用用户配置覆盖默认值
//
// 路径规则：配置了 storage.data_root 时使用 {data_root}/badger
func applyUserConfig(options *BadgerOptions, userConfig interface{}) {
	storageConfig, ok := userConfig.(*configtypes.UserStorageConfig)
	if !ok || storageConfig == nil {
		return
	}
	if storageConfig.DataRoot != nil && *storageConfig.DataRoot != "" {
		options.Path = filepath.Join(*storageConfig.DataRoot, "badger")
	}
	if storageConfig.InMemory != nil {
		options.InMemory = *storageConfig.InMemory
	}
	if storageConfig.SyncWrites != nil {
		options.SyncWrites = *storageConfig.SyncWrites
	}
}

// GetOptions 获取完整的BadgerDB配置选项
func (c *Config) GetOptions() *BadgerOptions {
	return c.options
}

// GetPath 获取数据库路径
func (c *Config) GetPath() string {
	return c.options.Path
}
