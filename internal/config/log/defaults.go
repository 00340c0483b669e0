package log

import (
	"go.uber.org/zap/zapcore"
)

// 日志配置默认值
const (
	// defaultLogLevel 默认日志级别
	defaultLogLevel = "info"

	// defaultToConsole 默认启用控制台输出
	defaultToConsole = true

	// defaultFilePath 默认日志目录
	// 多文件模式下 system / business 日志写入该目录
	defaultFilePath = "./data/logs/coprocessor.log"

	// === 日志轮转配置 ===

	// defaultMaxSize 单个日志文件最大大小(MB)
	defaultMaxSize = 100

	// defaultMaxBackups 最大备份文件数
	defaultMaxBackups = 10

	// defaultMaxAge 日志文件最大保留天数
	defaultMaxAge = 30

	// defaultCompress 默认压缩历史日志
	defaultCompress = true

	// === 调试配置 ===

	defaultEnableCaller     = true
	defaultEnableStacktrace = true

	// === 多文件日志配置 ===

	// defaultEnableMultiFile 默认拆分系统日志与业务日志
	// 系统日志：registry、fetcher、engine、process、storage、event
	// 业务日志：pipeline、jobs、api、app
	defaultEnableMultiFile = true

	defaultSystemLogFile   = "coprocessor-system.log"
	defaultBusinessLogFile = "coprocessor-business.log"
)

// 默认的日志级别映射
var defaultLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"panic": zapcore.PanicLevel,
	"fatal": zapcore.FatalLevel,
}
