package types

import (
	"context"
	"errors"
)

// ErrorKind 调用方可见的错误分类
type ErrorKind string

const (
	KindNotFound                   ErrorKind = "NotFound"
	KindRegistryUnavailable        ErrorKind = "RegistryUnavailable"
	KindLocationEmpty              ErrorKind = "LocationEmpty"
	KindUnsupportedScheme          ErrorKind = "UnsupportedScheme"
	KindFetchFailed                ErrorKind = "FetchFailed"
	KindHashMismatch               ErrorKind = "HashMismatch"
	KindLoadFailed                 ErrorKind = "LoadFailed"
	KindProvingFailed              ErrorKind = "ProvingFailed"
	KindTimeout                    ErrorKind = "Timeout"
	KindAssemblyInvariantViolation ErrorKind = "AssemblyInvariantViolation"
	KindInvalidRequest             ErrorKind = "InvalidRequest"
	KindCancelled                  ErrorKind = "Cancelled"
	KindUnknown                    ErrorKind = "Unknown"
)

// ============================================================================
//                              分类哨兵错误
// ============================================================================

var (
	// ErrNotFound 注册表中不存在该程序
	ErrNotFound = errors.New("program not found")

	// ErrRegistryUnavailable 注册表传输/RPC失败（可重试）
	ErrRegistryUnavailable = errors.New("registry unavailable")

	// ErrLocationEmpty 程序位置为空
	ErrLocationEmpty = errors.New("program location is empty")

	// ErrUnsupportedScheme 无法识别的位置格式
	ErrUnsupportedScheme = errors.New("unsupported location scheme")

	// ErrFetchFailed 拉取程序时发生传输/IO错误（可重试）
	ErrFetchFailed = errors.New("program fetch failed")

	// ErrHashMismatch 程序摘要与请求哈希不一致
	ErrHashMismatch = errors.New("program hash mismatch")

	// ErrLoadFailed 程序加载失败（ELF格式错误或指令集不兼容）
	ErrLoadFailed = errors.New("program load failed")

	// ErrProvingFailed 执行或证明失败
	ErrProvingFailed = errors.New("proving failed")

	// ErrTimeout 拉取或子进程超时（可重试）
	ErrTimeout = errors.New("operation timed out")

	// ErrAssemblyInvariantViolation 结果组装不变量被破坏，属于实现缺陷
	ErrAssemblyInvariantViolation = errors.New("assembly invariant violation")

	// ErrInvalidRequest 请求传输编码不合法
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCancelled 调用方取消
	ErrCancelled = errors.New("request cancelled")

	// ErrSubprocessCrashed 外部进程被信号终止，不是分类哨兵，只影响可重试判断
	ErrSubprocessCrashed = errors.New("subprocess terminated by signal")
)

// kindTable 分类顺序即优先级：Timeout/Cancelled 先于宿主分类匹配
var kindTable = []struct {
	err  error
	kind ErrorKind
}{
	{ErrAssemblyInvariantViolation, KindAssemblyInvariantViolation},
	{ErrInvalidRequest, KindInvalidRequest},
	{ErrHashMismatch, KindHashMismatch},
	{ErrNotFound, KindNotFound},
	{ErrLocationEmpty, KindLocationEmpty},
	{ErrUnsupportedScheme, KindUnsupportedScheme},
	{ErrLoadFailed, KindLoadFailed},
	{ErrCancelled, KindCancelled},
	{ErrTimeout, KindTimeout},
	{ErrRegistryUnavailable, KindRegistryUnavailable},
	{ErrFetchFailed, KindFetchFailed},
	{ErrProvingFailed, KindProvingFailed},
}

// KindOf 对任意包装后的错误分类
//
// 未带分类哨兵的 context 错误按 Timeout / Cancelled 归类。
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, entry := range kindTable {
		if errors.Is(err, entry.err) {
			// ProvingFailed 包装的超时保持 ProvingFailed 分类
			if entry.kind == KindTimeout && errors.Is(err, ErrProvingFailed) {
				return KindProvingFailed
			}
			return entry.kind
		}
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCancelled
	}
	return KindUnknown
}

// ErrorForKind 返回分类对应的哨兵错误
func ErrorForKind(kind ErrorKind) error {
	for _, entry := range kindTable {
		if entry.kind == kind {
			return entry.err
		}
	}
	return nil
}

// Retryable 判断错误是否值得重试
//
// ProvingFailed 视情况而定：只有包装了超时或子进程崩溃的失败才视为可重试。
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindRegistryUnavailable, KindFetchFailed, KindTimeout:
		return true
	case KindProvingFailed:
		return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(err, ErrSubprocessCrashed)
	default:
		return false
	}
}
