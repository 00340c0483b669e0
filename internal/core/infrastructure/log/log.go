// Package log 提供了一个通用的日志接口和基于zap的实现
// 它支持不同级别的日志记录、结构化日志、日志轮转，以及按模块拆分的多文件输出
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	logconfig "github.com/weisyn/coprocessor/internal/config/log"
	logInterface "github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// 日志级别定义
const (
	DebugLevel = string(logInterface.DebugLevel)
	InfoLevel  = string(logInterface.InfoLevel)
	WarnLevel  = string(logInterface.WarnLevel)
	ErrorLevel = string(logInterface.ErrorLevel)
	FatalLevel = string(logInterface.FatalLevel)
)

// EnvCLIMode 为 "true" 时禁用控制台输出（CLI渲染结果时避免混杂）
const EnvCLIMode = "COPROCESSOR_CLI_MODE"

var (
	// 全局日志实例
	globalLogger logInterface.Logger
	// 用于保护全局日志实例的互斥锁
	mu sync.RWMutex
)

// Logger 是日志记录器的结构体，实现了log.Logger接口
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

// 初始化全局日志记录器（仅控制台）
func init() {
	ResetDefault()
}

// ResetDefault 重置全局日志记录器为控制台默认配置
func ResetDefault() {
	options := logconfig.New(nil).GetOptions()
	options.FilePath = ""

	logger, err := New(options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize default logger: %v\n", err)
		return
	}
	SetLogger(logger)
}

// moduleRoutingCore 基于 module 字段的路由 Core
// 根据日志中的 module 字段决定写入 system 日志还是 business 日志
//
// module 字段既可能随单条日志写入，也可能经 With 绑定到 logger 上，
// 两种来源都参与路由。
type moduleRoutingCore struct {
	systemCore   zapcore.Core
	businessCore zapcore.Core
	module       string // 经 With 绑定的模块
}

// Enabled 实现 zapcore.Core 接口
func (c *moduleRoutingCore) Enabled(level zapcore.Level) bool {
	return c.systemCore.Enabled(level) || c.businessCore.Enabled(level)
}

// With 实现 zapcore.Core 接口
func (c *moduleRoutingCore) With(fields []zapcore.Field) zapcore.Core {
	module := c.module
	if m := moduleOf(fields); m != "" {
		module = m
	}
	return &moduleRoutingCore{
		systemCore:   c.systemCore.With(fields),
		businessCore: c.businessCore.With(fields),
		module:       module,
	}
}

// Check 实现 zapcore.Core 接口
// Check 阶段拿不到字段，实际路由在 Write 中进行
func (c *moduleRoutingCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

// Write 实现 zapcore.Core 接口
func (c *moduleRoutingCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	module := c.module
	if m := moduleOf(fields); m != "" {
		module = m
	}

	switch {
	case isSystemModule(module):
		return c.systemCore.Write(entry, fields)
	case isBusinessModule(module):
		return c.businessCore.Write(entry, fields)
	}

	// 没有 module 字段或未知 module，写入两个文件
	var errs []error
	if err := c.systemCore.Write(entry, fields); err != nil {
		errs = append(errs, err)
	}
	if err := c.businessCore.Write(entry, fields); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("写入日志失败: %v", errs)
	}
	return nil
}

// Sync 实现 zapcore.Core 接口
func (c *moduleRoutingCore) Sync() error {
	var errs []error
	if err := c.systemCore.Sync(); err != nil {
		errs = append(errs, err)
	}
	if err := c.businessCore.Sync(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("同步日志文件失败: %v", errs)
	}
	return nil
}

// moduleOf 提取字段中的 module 值
func moduleOf(fields []zapcore.Field) string {
	for _, field := range fields {
		if field.Key != "module" {
			continue
		}
		switch field.Type {
		case zapcore.StringType:
			return field.String
		case zapcore.StringerType:
			if s, ok := field.Interface.(fmt.Stringer); ok && s != nil {
				return s.String()
			}
		default:
			if str, ok := field.Interface.(string); ok {
				return str
			}
		}
	}
	return ""
}

// systemModules 基础设施模块
var systemModules = map[string]bool{
	"registry": true, // 程序注册表
	"fetcher":  true, // 程序拉取与校验
	"engine":   true, // 证明引擎与工作池
	"process":  true, // 子进程管理
	"storage":  true, // Badger / BigCache / Redis
	"event":    true, // 事件总线
	"system":   true,
}

// businessModules 业务模块
var businessModules = map[string]bool{
	"pipeline": true, // 证明流水线
	"jobs":     true, // 任务分发
	"api":      true, // HTTP 接口
	"app":      true, // 应用生命周期
	"cli":      true,
}

// isSystemModule 判断是否为系统模块
func isSystemModule(module string) bool {
	return systemModules[module]
}

// isBusinessModule 判断是否为业务模块
func isBusinessModule(module string) bool {
	return businessModules[module]
}

// createFileWriter 创建日志文件写入器
func createFileWriter(logPath string, options *logconfig.LogOptions) zapcore.WriteSyncer {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "创建日志目录失败 %s: %v\n", logDir, err)
		return zapcore.AddSync(os.Stderr)
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    options.MaxSize, // megabytes
		MaxBackups: options.MaxBackups,
		MaxAge:     options.MaxAge, // days
		Compress:   options.Compress,
	})
}

// New 根据配置创建新的日志记录器
func New(options *logconfig.LogOptions) (logInterface.Logger, error) {
	if options == nil {
		options = logconfig.New(nil).GetOptions()
	}
	level := zap.NewAtomicLevelAt(options.ZapLevel())

	var cores []zapcore.Core

	outputPath := options.FilePath
	toConsole := os.Getenv(EnvCLIMode) != "true" && (outputPath == "stdout" || outputPath == "stderr" || options.ToConsole)
	if toConsole {
		output := zapcore.AddSync(os.Stdout)
		if outputPath == "stderr" {
			output = zapcore.AddSync(os.Stderr)
		}
		cores = append(cores, zapcore.NewCore(options.CreateConsoleEncoder(), output, level))
	}

	if outputPath != "" && outputPath != "stdout" && outputPath != "stderr" {
		absPath, err := filepath.Abs(outputPath)
		if err != nil {
			return nil, fmt.Errorf("获取日志文件绝对路径失败: %w", err)
		}
		fileEncoder := options.CreateFileEncoder()

		if options.EnableMultiFile {
			// 多文件模式：system.log + business.log
			logDir := filepath.Dir(absPath)
			systemCore := zapcore.NewCore(fileEncoder, createFileWriter(filepath.Join(logDir, options.SystemLogFile), options), level)
			businessCore := zapcore.NewCore(fileEncoder.Clone(), createFileWriter(filepath.Join(logDir, options.BusinessLogFile), options), level)
			cores = append(cores, &moduleRoutingCore{
				systemCore:   systemCore,
				businessCore: businessCore,
			})
		} else {
			cores = append(cores, zapcore.NewCore(fileEncoder, createFileWriter(absPath, options), level))
		}
	}

	if len(cores) == 0 {
		// 既不输出控制台也不写文件时仍需一个可用的 core
		cores = append(cores, zapcore.NewNopCore())
	}

	zapOptions := []zap.Option{}
	if options.EnableCaller {
		// 跳过一层封装，使调用位置指向业务代码
		zapOptions = append(zapOptions, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if options.EnableStacktrace {
		zapOptions = append(zapOptions, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), zapOptions...)
	return &Logger{
		zapLogger: zapLogger,
		sugar:     zapLogger.Sugar(),
	}, nil
}

// GetZapLogger 获取底层的zap日志记录器
func (l *Logger) GetZapLogger() *zap.Logger {
	return l.zapLogger
}

// SetLogger 设置全局日志记录器
func SetLogger(logger logInterface.Logger) {
	if logger == nil {
		return
	}
	mu.Lock()
	globalLogger = logger
	mu.Unlock()
}

// GetLogger 获取全局日志记录器
func GetLogger() logInterface.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// Info 使用全局日志记录器记录信息级别日志
func Info(msg string) {
	if l := GetLogger(); l != nil {
		l.Info(msg)
	}
}

// Infof 使用全局日志记录器记录格式化信息日志
func Infof(format string, args ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Infof(format, args...)
	}
}

// Warnf 使用全局日志记录器记录格式化警告日志
func Warnf(format string, args ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Warnf(format, args...)
	}
}

// Errorf 使用全局日志记录器记录格式化错误日志
func Errorf(format string, args ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Errorf(format, args...)
	}
}

// With 创建带有额外字段的日志记录器
func With(args ...interface{}) logInterface.Logger {
	l := GetLogger()
	if l == nil {
		ResetDefault()
		l = GetLogger()
	}
	return l.With(args...)
}

// Debug 记录调试级别的日志
func (l *Logger) Debug(msg string) {
	l.sugar.Debug(msg)
}

// Debugf 使用格式化字符串记录调试级别的日志
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info 记录信息级别的日志
func (l *Logger) Info(msg string) {
	l.sugar.Info(msg)
}

// Infof 使用格式化字符串记录信息级别的日志
func (l *Logger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn 记录警告级别的日志
func (l *Logger) Warn(msg string) {
	l.sugar.Warn(msg)
}

// Warnf 使用格式化字符串记录警告级别的日志
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error 记录错误级别的日志
func (l *Logger) Error(msg string) {
	l.sugar.Error(msg)
}

// Errorf 使用格式化字符串记录错误级别的日志
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Fatal 记录致命级别的日志，然后退出程序
func (l *Logger) Fatal(msg string) {
	l.sugar.Fatal(msg)
}

// Fatalf 使用格式化字符串记录致命级别的日志，然后退出程序
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.sugar.Fatalf(format, args...)
}

// With 返回一个带有额外字段的Logger
func (l *Logger) With(args ...interface{}) logInterface.Logger {
	zl := l.sugar.With(args...).Desugar()
	return &Logger{
		zapLogger: zl,
		sugar:     zl.Sugar(),
	}
}

// Sync 同步日志缓冲区到输出
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}
