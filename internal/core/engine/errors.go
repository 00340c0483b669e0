// Package engine 实现证明引擎
//
// 每次证明调用是一个 Invocation 状态机：
//
//	Idle → Loaded → Executed → Proved   (Full / FullWithEvm)
//	Idle → Loaded → Executed            (Fast)
//
// 任何非终态都可进入 Failed；在错误状态下调用操作返回 ErrInvalidTransition 并进入 Failed。
// 模拟执行与证明都在有界的 WorkerPool 中运行，外部证明后端与 EVM 包装进程通过
// process.Runner 受控执行。
package engine

import (
	"errors"
	"fmt"

	"github.com/weisyn/coprocessor/internal/core/infrastructure/process"
	"github.com/weisyn/coprocessor/pkg/interfaces/coprocessor"
	"github.com/weisyn/coprocessor/pkg/types"
)

// 引擎错误
var (
	// ErrInvalidTransition 当前状态不允许该操作
	ErrInvalidTransition = errors.New("engine: invalid state transition")

	// ErrProverNotConfigured 未配置完整证明后端
	ErrProverNotConfigured = errors.New("engine: prover backend not configured")

	// ErrPublicValuesMismatch 后端报告的公开值与执行结果不一致
	ErrPublicValuesMismatch = errors.New("engine: public values mismatch")

	// ErrMissingArtifact 外部进程未产出预期文件
	ErrMissingArtifact = errors.New("engine: missing artifact")

	// ErrGuestExit 程序以非零退出码停机
	ErrGuestExit = errors.New("engine: guest exited with non-zero code")
)

// WrapLoadError 程序加载失败
func WrapLoadError(cause error) error {
	return fmt.Errorf("%w: %w", types.ErrLoadFailed, cause)
}

// WrapProvingError 执行或证明失败
func WrapProvingError(stage string, cause error) error {
	return fmt.Errorf("%w: stage=%s, cause=%w", types.ErrProvingFailed, stage, cause)
}

// WrapTransitionError 非法状态迁移
func WrapTransitionError(op string, from coprocessor.State) error {
	return WrapProvingError(op, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, from))
}

// wrapProcessError 把子进程错误归入 ProvingFailed，超时与信号终止额外标记
func wrapProcessError(stage string, res *process.Result, err error) error {
	switch {
	case errors.Is(err, process.ErrProcessTimeout):
		return WrapProvingError(stage, fmt.Errorf("%w: %w", types.ErrTimeout, err))
	case errors.Is(err, process.ErrNonZeroExit) && res != nil && res.ExitCode == -1:
		return WrapProvingError(stage, fmt.Errorf("%w: %w", types.ErrSubprocessCrashed, err))
	default:
		return WrapProvingError(stage, err)
	}
}
