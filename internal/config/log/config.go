package log

import (
	"strings"

	configtypes "github.com/weisyn/coprocessor/pkg/types"
	"go.uber.org/zap/zapcore"
)

// LogOptions 日志配置选项
type LogOptions struct {
	// === 基础配置 ===
	Level     string `json:"level"`      // 日志级别 (debug, info, warn, error, fatal)
	ToConsole bool   `json:"to_console"` // 是否输出到控制台
	FilePath  string `json:"file_path"`  // 日志文件路径，为空时不写文件

	// === 基础轮转配置 ===
	MaxSize    int  `json:"max_size"`    // 单个日志文件最大大小(MB)
	MaxBackups int  `json:"max_backups"` // 最大备份文件数
	MaxAge     int  `json:"max_age"`     // 日志文件最大保留天数
	Compress   bool `json:"compress"`    // 是否压缩历史日志文件

	// === 调试配置 ===
	EnableCaller     bool `json:"enable_caller"`     // 是否启用调用者信息
	EnableStacktrace bool `json:"enable_stacktrace"` // 是否启用堆栈跟踪

	// === 多文件配置 ===
	EnableMultiFile bool   `json:"enable_multi_file"` // 是否按模块拆分日志文件
	SystemLogFile   string `json:"system_log_file"`   // 系统日志文件名
	BusinessLogFile string `json:"business_log_file"` // 业务日志文件名

	// === 内部配置（不对外暴露） ===
	LevelMap map[string]zapcore.Level `json:"-"` // 级别映射
}

// Config 日志配置实现
type Config struct {
	options *LogOptions
}

// New 创建日志配置实现
func New(userConfig interface{}) *Config {
	// 1. 先创建完整的默认配置
	defaultOptions := createDefaultLogOptions()

	// 2. 如果有用户配置，应用用户配置覆盖默认值
	if userConfig != nil {
		applyUserLogConfig(defaultOptions, userConfig)
	}

	return &Config{
		options: defaultOptions,
	}
}

// createDefaultLogOptions 创建默认日志配置
func createDefaultLogOptions() *LogOptions {
	return &LogOptions{
		Level:     defaultLogLevel,
		ToConsole: defaultToConsole,
		FilePath:  defaultFilePath,

		MaxSize:    defaultMaxSize,
		MaxBackups: defaultMaxBackups,
		MaxAge:     defaultMaxAge,
		Compress:   defaultCompress,

		EnableCaller:     defaultEnableCaller,
		EnableStacktrace: defaultEnableStacktrace,

		EnableMultiFile: defaultEnableMultiFile,
		SystemLogFile:   defaultSystemLogFile,
		BusinessLogFile: defaultBusinessLogFile,

		LevelMap: defaultLevelMap,
	}
}

// applyUserLogConfig 应用用户日志配置覆盖默认值
func applyUserLogConfig(options *LogOptions, userConfig interface{}) {
	logConfig, ok := userConfig.(*configtypes.UserLogConfig)
	if !ok || logConfig == nil {
		return
	}
	// 只处理配置文件中实际出现的字段
	if logConfig.Level != nil {
		options.Level = strings.ToLower(*logConfig.Level)
	}
	if logConfig.FilePath != nil {
		options.FilePath = *logConfig.FilePath
		options.ToConsole = false // 指定文件路径时默认不输出到控制台
	}
	if logConfig.ToConsole != nil {
		options.ToConsole = *logConfig.ToConsole
	}
	if logConfig.EnableMultiLog != nil {
		options.EnableMultiFile = *logConfig.EnableMultiLog
	}
	if logConfig.MaxSize != nil && *logConfig.MaxSize > 0 {
		options.MaxSize = *logConfig.MaxSize
	}
}

// GetOptions 获取完整的日志配置选项
func (c *Config) GetOptions() *LogOptions {
	return c.options
}

// GetLevel 获取日志级别
func (c *Config) GetLevel() string {
	return c.options.Level
}

// GetZapLevel 获取zap日志级别
func (c *Config) GetZapLevel() zapcore.Level {
	return c.options.ZapLevel()
}

// ZapLevel 将配置级别转换为zap级别，未知级别返回Info
func (o *LogOptions) ZapLevel() zapcore.Level {
	levelMap := o.LevelMap
	if levelMap == nil {
		levelMap = defaultLevelMap
	}
	if level, exists := levelMap[o.Level]; exists {
		return level
	}
	return zapcore.InfoLevel
}

// IsConsoleEnabled 是否启用控制台输出
func (c *Config) IsConsoleEnabled() bool {
	return c.options.ToConsole
}

// GetFilePath 获取日志文件路径
func (c *Config) GetFilePath() string {
	return c.options.FilePath
}

// CreateFileEncoder 创建文件编码器（JSON格式）
func (o *LogOptions) CreateFileEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
	})
}

// CreateConsoleEncoder 创建控制台编码器
func (o *LogOptions) CreateConsoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
	})
}
