// Package pipeline 提供证明流水线配置
package pipeline

import (
	"time"

	configtypes "github.com/weisyn/coprocessor/pkg/types"
)

// PipelineOptions 证明流水线配置选项
type PipelineOptions struct {
	RequestTimeout          time.Duration `json:"request_timeout"`
	DedupeIdenticalRequests bool          `json:"dedupe_identical_requests"`
}

// Config 流水线配置实现
type Config struct {
	options *PipelineOptions
}

// New 创建流水线配置
func New(userConfig interface{}) *Config {
	options := &PipelineOptions{
		RequestTimeout:          defaultRequestTimeout,
		DedupeIdenticalRequests: defaultDedupeIdenticalRequests,
	}
	if cfg, ok := userConfig.(*configtypes.UserPipelineConfig); ok && cfg != nil {
		if cfg.RequestTimeout != nil {
			if d, err := time.ParseDuration(*cfg.RequestTimeout); err == nil && d >= 0 {
				options.RequestTimeout = d
			}
		}
		if cfg.DedupeIdenticalRequests != nil {
			options.DedupeIdenticalRequests = *cfg.DedupeIdenticalRequests
		}
	}
	return &Config{options: options}
}

// GetOptions 获取流水线配置选项
func (c *Config) GetOptions() *PipelineOptions {
	return c.options
}
