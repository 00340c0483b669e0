// Package pipeline 编排一次证明请求
//
// 阶段严格按顺序执行，任一阶段失败立即返回并标注阶段名：
//
//	resolve → fetch → verify → load → execute → assemble
//
// 各阶段保留下游的错误分类，不做降级或重新解释。
package pipeline

import (
	"fmt"

	"github.com/weisyn/coprocessor/pkg/types"
)

// Stage 流水线阶段
type Stage string

const (
	StageResolve  Stage = "resolve"
	StageFetch    Stage = "fetch"
	StageVerify   Stage = "verify"
	StageLoad     Stage = "load"
	StageExecute  Stage = "execute"
	StageAssemble Stage = "assemble"
	// StageRequest 请求校验（协处理器输入打包）
	StageRequest Stage = "request"
)

// stageDefaultKind 下游返回未分类错误时使用的阶段分类
var stageDefaultKind = map[Stage]types.ErrorKind{
	StageResolve:  types.KindRegistryUnavailable,
	StageFetch:    types.KindFetchFailed,
	StageVerify:   types.KindHashMismatch,
	StageLoad:     types.KindLoadFailed,
	StageExecute:  types.KindProvingFailed,
	StageAssemble: types.KindAssemblyInvariantViolation,
	StageRequest:  types.KindInvalidRequest,
}

// Error 带阶段与分类的流水线错误
type Error struct {
	Stage Stage
	Kind  types.ErrorKind
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline %s: %s: %v", e.Stage, e.Kind, e.Err)
}

// Unwrap 返回原始错误
func (e *Error) Unwrap() error {
	return e.Err
}

// newStageError 标注阶段；未分类错误归入该阶段的默认分类
func newStageError(stage Stage, err error) *Error {
	kind := types.KindOf(err)
	if kind == types.KindUnknown {
		kind = stageDefaultKind[stage]
		err = fmt.Errorf("%w: %w", types.ErrorForKind(kind), err)
	}
	return &Error{Stage: stage, Kind: kind, Err: err}
}
