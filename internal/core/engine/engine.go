package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	engineconfig "github.com/weisyn/coprocessor/internal/config/engine"
	"github.com/weisyn/coprocessor/internal/core/engine/riscv"
	"github.com/weisyn/coprocessor/pkg/interfaces/coprocessor"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// Engine 证明引擎
type Engine struct {
	options *engineconfig.EngineOptions
	prover  Prover
	evm     *EvmWrapper
	pool    *WorkerPool
	logger  log.Logger

	// maxPages 模拟器内存页上限，0 取默认
	maxPages int
}

var _ coprocessor.Engine = (*Engine)(nil)

// New 创建证明引擎并确保工作目录可用
//
// prover 为 nil 时使用 UnconfiguredProver；evm 为 nil 时 FullWithEvm 模式不可用。
func New(options *engineconfig.EngineOptions, prover Prover, evm *EvmWrapper, pool *WorkerPool, logger log.Logger) (*Engine, error) {
	if options == nil {
		options = engineconfig.New(nil).GetOptions()
	}
	if err := EnsureWorkDir(options.WorkDir); err != nil {
		return nil, err
	}
	if prover == nil {
		prover = UnconfiguredProver{}
	}
	if pool == nil {
		pool = NewWorkerPool(options.Workers, options.QueueSize, options.MemoryPerProofMB, logger)
		pool.Start()
	}
	return &Engine{
		options:  options,
		prover:   prover,
		evm:      evm,
		pool:     pool,
		logger:   logger,
		maxPages: riscv.DefaultMaxPages,
	}, nil
}

// NewInvocation 实现 coprocessor.Engine
func (e *Engine) NewInvocation() coprocessor.Invocation {
	return &invocation{engine: e, state: coprocessor.StateIdle}
}

// Pool 工作线程池
func (e *Engine) Pool() *WorkerPool {
	return e.pool
}

// EnsureWorkDir 工作目录不存在时创建，存在但不是目录时报错
func EnsureWorkDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("engine: work dir %s exists but is not a directory", dir)
	case err == nil:
		return nil
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("engine: create work dir %s: %w", dir, err)
		}
		return nil
	default:
		return fmt.Errorf("engine: stat work dir %s: %w", dir, err)
	}
}

// newOutputDir 创建 proof_{kind}_{unix-millis}_{uuid} 目录
func (e *Engine) newOutputDir(kind string) (string, error) {
	name := fmt.Sprintf("proof_%s_%d_%s", kind, time.Now().UnixMilli(), uuid.NewString())
	dir := filepath.Join(e.options.WorkDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
