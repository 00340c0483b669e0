// Package redis 提供Redis缓存配置
package redis

import (
	"time"

	configtypes "github.com/weisyn/coprocessor/pkg/types"
)

// RedisOptions Redis缓存配置选项
type RedisOptions struct {
	Addr         string        `json:"addr"`
	Password     string        `json:"-"`
	DB           int           `json:"db"`
	Prefix       string        `json:"prefix"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	PoolSize     int           `json:"pool_size"`
}

// Config Redis配置实现
type Config struct {
	options *RedisOptions
}

// New 创建Redis配置
func New(userConfig interface{}) *Config {
	options := &RedisOptions{
		Addr:         defaultAddr,
		DB:           defaultDB,
		Prefix:       defaultPrefix,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		PoolSize:     defaultPoolSize,
	}
	if cfg, ok := userConfig.(*configtypes.UserStorageConfig); ok && cfg != nil {
		if cfg.RedisAddr != nil && *cfg.RedisAddr != "" {
			options.Addr = *cfg.RedisAddr
		}
		if cfg.RedisPassword != nil {
			options.Password = *cfg.RedisPassword
		}
		if cfg.RedisDB != nil && *cfg.RedisDB >= 0 {
			options.DB = *cfg.RedisDB
		}
		if cfg.RedisPrefix != nil {
			options.Prefix = *cfg.RedisPrefix
		}
	}
	return &Config{options: options}
}

// GetOptions 获取Redis配置选项
func (c *Config) GetOptions() *RedisOptions {
	return c.options
}
