// Package testutil 提供协处理器各模块测试共用的辅助工具
//
// 本包提供测试所需的 Mock 对象、测试数据和辅助函数，用于简化测试代码编写。
package testutil

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// ==================== Mock 对象 ====================

// MockLogger 统一的日志Mock实现
//
// ✅ **设计原则**：最小实现，所有方法返回空值，不记录日志
// 📋 **使用场景**：不需要验证日志调用的测试
type MockLogger struct{}

func (m *MockLogger) Debug(msg string)                          {}
func (m *MockLogger) Debugf(format string, args ...interface{}) {}
func (m *MockLogger) Info(msg string)                           {}
func (m *MockLogger) Infof(format string, args ...interface{})  {}
func (m *MockLogger) Warn(msg string)                           {}
func (m *MockLogger) Warnf(format string, args ...interface{})  {}
func (m *MockLogger) Error(msg string)                          {}
func (m *MockLogger) Errorf(format string, args ...interface{}) {}
func (m *MockLogger) Fatal(msg string)                          {}
func (m *MockLogger) Fatalf(format string, args ...interface{}) {}
func (m *MockLogger) With(args ...interface{}) log.Logger       { return m }
func (m *MockLogger) Sync() error                               { return nil }
func (m *MockLogger) GetZapLogger() *zap.Logger                 { return zap.NewNop() }

// BehavioralMockLogger 行为Mock日志（记录调用）
//
// ✅ **设计原则**：记录所有日志调用，用于验证日志行为
// 📋 **使用场景**：需要验证日志调用的测试
type BehavioralMockLogger struct {
	logs  []string
	mutex sync.Mutex
}

func (m *BehavioralMockLogger) record(level, msg string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.logs = append(m.logs, level+": "+msg)
}

func (m *BehavioralMockLogger) Debug(msg string) { m.record("DEBUG", msg) }
func (m *BehavioralMockLogger) Debugf(format string, args ...interface{}) {
	m.record("DEBUG", fmt.Sprintf(format, args...))
}
func (m *BehavioralMockLogger) Info(msg string) { m.record("INFO", msg) }
func (m *BehavioralMockLogger) Infof(format string, args ...interface{}) {
	m.record("INFO", fmt.Sprintf(format, args...))
}
func (m *BehavioralMockLogger) Warn(msg string) { m.record("WARN", msg) }
func (m *BehavioralMockLogger) Warnf(format string, args ...interface{}) {
	m.record("WARN", fmt.Sprintf(format, args...))
}
func (m *BehavioralMockLogger) Error(msg string) { m.record("ERROR", msg) }
func (m *BehavioralMockLogger) Errorf(format string, args ...interface{}) {
	m.record("ERROR", fmt.Sprintf(format, args...))
}
func (m *BehavioralMockLogger) Fatal(msg string) { m.record("FATAL", msg) }
func (m *BehavioralMockLogger) Fatalf(format string, args ...interface{}) {
	m.record("FATAL", fmt.Sprintf(format, args...))
}
func (m *BehavioralMockLogger) With(args ...interface{}) log.Logger { return m }
func (m *BehavioralMockLogger) Sync() error                         { return nil }
func (m *BehavioralMockLogger) GetZapLogger() *zap.Logger           { return zap.NewNop() }

// GetLogs 获取所有日志记录
func (m *BehavioralMockLogger) GetLogs() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]string{}, m.logs...)
}

// ClearLogs 清空日志记录
func (m *BehavioralMockLogger) ClearLogs() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.logs = m.logs[:0]
}
