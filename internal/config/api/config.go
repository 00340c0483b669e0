// Package api 提供HTTP任务接口配置
package api

import (
	"time"

	"github.com/weisyn/coprocessor/pkg/types"
)

// HTTPConfig HTTP API配置
type HTTPConfig struct {
	Enabled bool   `json:"enabled"` // 是否启用HTTP服务
	Host    string `json:"host"`    // 监听地址
	Port    int    `json:"port"`    // 监听端口

	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`

	MaxBodySize int64 `json:"max_body_size"` // 最大请求大小(字节)
}

// APIOptions API服务配置选项
type APIOptions struct {
	HTTP HTTPConfig `json:"http"`
}

// Config API配置实现
type Config struct {
	options *APIOptions
}

// New 创建API配置实现
func New(userConfig *types.UserAPIConfig) *Config {
	defaultOptions := &APIOptions{
		HTTP: HTTPConfig{
			Enabled:      defaultHTTPEnabled,
			Host:         defaultHTTPHost,
			Port:         defaultHTTPPort,
			ReadTimeout:  defaultHTTPReadTimeout,
			WriteTimeout: defaultHTTPWriteTimeout,
			IdleTimeout:  defaultHTTPIdleTimeout,
			MaxBodySize:  defaultMaxBodySize,
		},
	}
	if userConfig != nil {
		convertAndMergeUserConfig(defaultOptions, userConfig)
	}
	return &Config{options: defaultOptions}
}

// convertAndMergeUserConfig 将用户配置合并到默认配置
// 指针字段区分"未设置"与"设置为零值"
func convertAndMergeUserConfig(defaultOpts *APIOptions, userConfig *types.UserAPIConfig) {
	if userConfig.HTTPEnabled != nil {
		defaultOpts.HTTP.Enabled = *userConfig.HTTPEnabled
	}
	if userConfig.HTTPHost != nil && *userConfig.HTTPHost != "" {
		defaultOpts.HTTP.Host = *userConfig.HTTPHost
	}
	if userConfig.HTTPPort != nil {
		defaultOpts.HTTP.Port = *userConfig.HTTPPort
	}
	if userConfig.MaxBodySize != nil && *userConfig.MaxBodySize > 0 {
		defaultOpts.HTTP.MaxBodySize = *userConfig.MaxBodySize
	}
}

// GetOptions 获取API配置选项
func (c *Config) GetOptions() *APIOptions {
	return c.options
}
