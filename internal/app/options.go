package app

import (
	"time"

	"github.com/weisyn/coprocessor/pkg/interfaces/config"
	"github.com/weisyn/coprocessor/pkg/types"
)

// Option 应用程序选项函数类型
type Option func(*options)

// options 应用程序选项，实现 config.AppOptions
type options struct {
	// 配置文件路径
	configFilePath string

	// 嵌入的配置内容（优先级高于 configFilePath）
	embeddedConfig []byte
	embeddedExt    string

	// 直接提供的配置（优先级最高，测试与CLI使用）
	appConfig *types.AppConfig

	// API支持开关（默认启用）
	enableAPI bool

	// logLevel 非空时覆盖配置中的日志级别
	logLevel string
	logQuiet bool

	startTimeout time.Duration
	stopTimeout  time.Duration
}

var _ config.AppOptions = (*options)(nil)

// WithConfigFile 设置配置文件路径
func WithConfigFile(configPath string) Option {
	return func(o *options) {
		o.configFilePath = configPath
	}
}

// WithEmbeddedConfig 使用内存中的配置内容，ext 为 ".json" 或 ".yaml"
func WithEmbeddedConfig(configBytes []byte, ext string) Option {
	return func(o *options) {
		o.embeddedConfig = configBytes
		o.embeddedExt = ext
	}
}

// WithAppConfig 直接使用已解析的配置
func WithAppConfig(cfg *types.AppConfig) Option {
	return func(o *options) {
		o.appConfig = cfg
	}
}

// WithAPI 启用HTTP任务接口
func WithAPI() Option {
	return func(o *options) {
		o.enableAPI = true
	}
}

// WithoutAPI 禁用HTTP任务接口（一次性证明、注册表命令）
func WithoutAPI() Option {
	return func(o *options) {
		o.enableAPI = false
	}
}

// WithLogLevel 覆盖日志级别；quiet 关闭控制台输出（CLI命令的结果直接打印到终端）
func WithLogLevel(level string, quiet bool) Option {
	return func(o *options) {
		o.logLevel = level
		o.logQuiet = quiet
	}
}

// WithTimeouts 设置启动与停止超时
func WithTimeouts(start, stop time.Duration) Option {
	return func(o *options) {
		if start > 0 {
			o.startTimeout = start
		}
		if stop > 0 {
			o.stopTimeout = stop
		}
	}
}

func newOptions(opts ...Option) *options {
	o := &options{
		enableAPI:    true,
		startTimeout: defaultStartTimeout,
		stopTimeout:  defaultStopTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GetAppConfig 实现 config.AppOptions
func (o *options) GetAppConfig() *types.AppConfig {
	return o.appConfig
}
