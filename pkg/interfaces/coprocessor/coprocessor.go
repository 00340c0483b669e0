// Package coprocessor 定义证明编排服务的核心组件接口
//
// 流水线只依赖这些能力接口，不依赖具体的链、存储或证明后端：
//   - Resolver：按程序哈希解析程序位置
//   - ResolverFactory：按单请求的注册表覆盖创建 Resolver
//   - Fetcher：拉取并校验程序二进制
//   - Engine / Invocation：单次证明调用的状态机
package coprocessor

import (
	"context"

	"github.com/weisyn/coprocessor/pkg/types"
)

// Resolver 程序注册表只读解析
//
// 实现必须幂等、无副作用、可并发调用。
type Resolver interface {
	// Resolve 未登记返回 NotFound；传输失败返回 RegistryUnavailable
	Resolve(ctx context.Context, hash types.ProgramHash) (types.ProgramRecord, error)
}

// ResolverFactory 按请求覆盖创建注册表客户端
type ResolverFactory interface {
	// ForOverride override 为空时返回默认 Resolver
	ForOverride(ctx context.Context, override *types.RegistryOverride) (Resolver, error)
}

// Fetcher 程序拉取器
type Fetcher interface {
	// Fetch 按位置拉取程序字节
	Fetch(ctx context.Context, location string, expected types.ProgramHash) ([]byte, error)
	// Verify 校验字节摘要，不一致返回 HashMismatch
	Verify(program []byte, expected types.ProgramHash) error
}

// State 单次证明调用的状态
type State int

const (
	StateIdle State = iota
	StateLoaded
	StateExecuted
	StateProved
	StateFailed
)

// String 状态名称
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoaded:
		return "Loaded"
	case StateExecuted:
		return "Executed"
	case StateProved:
		return "Proved"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Invocation 单次证明调用
//
// 状态机：Idle → Loaded → Executed → Proved（Full/FullWithEvm）
// 或 Idle → Loaded → Executed（Fast）；任何非终态都可进入 Failed。
// 不可并发使用。
type Invocation interface {
	// Load 解析程序并绑定输入
	Load(program, inputs []byte) error
	// ExecuteFast 仅执行，结果不具备密码学可靠性
	ExecuteFast(ctx context.Context) (*types.ProvingOutput, error)
	// ProveFull 执行并生成递归简洁证明
	ProveFull(ctx context.Context) (*types.ProvingOutput, error)
	// ProveEvm 完整证明后经外部进程包装为链上可验证证明
	ProveEvm(ctx context.Context, cfg *types.EvmConfig) (*types.ProvingOutput, error)
	// State 当前状态
	State() State
	// Close 释放调用占用的工作目录
	Close() error
}

// Engine 证明引擎
type Engine interface {
	// NewInvocation 创建处于 Idle 状态的新调用
	NewInvocation() Invocation
}
