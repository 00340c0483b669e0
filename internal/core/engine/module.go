package engine

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	engineconfig "github.com/weisyn/coprocessor/internal/config/engine"
	logimpl "github.com/weisyn/coprocessor/internal/core/infrastructure/log"
	"github.com/weisyn/coprocessor/internal/core/infrastructure/process"
	"github.com/weisyn/coprocessor/pkg/interfaces/config"
	"github.com/weisyn/coprocessor/pkg/interfaces/coprocessor"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// ModuleInput 引擎模块依赖
type ModuleInput struct {
	fx.In

	Lifecycle fx.Lifecycle
	Provider  config.Provider
	Logger    log.Logger `optional:"true"`
}

// ModuleOutput 引擎模块输出
type ModuleOutput struct {
	fx.Out

	Engine coprocessor.Engine
	Pool   *WorkerPool
}

// Module 返回引擎模块
func Module() fx.Option {
	return fx.Module("engine",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 装配证明引擎；工作线程池随应用启动与停止
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	options := input.Provider.GetEngine()
	logger := logimpl.NewModuleLogger(input.Logger, "engine")
	runner := process.NewRunner(options.OutputLimit, logimpl.NewModuleLogger(input.Logger, "process"))

	prover, err := newProver(options, runner, logger)
	if err != nil {
		return ModuleOutput{}, err
	}
	var evm *EvmWrapper
	if options.Evm.Command != "" {
		evm = NewEvmWrapper(options.Evm.Command, options.Evm.Args, runner, logger)
	}

	pool := NewWorkerPool(options.Workers, options.QueueSize, options.MemoryPerProofMB, logger)
	eng, err := New(options, prover, evm, pool, logger)
	if err != nil {
		return ModuleOutput{}, err
	}
	input.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			pool.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			pool.Stop()
			return nil
		},
	})
	return ModuleOutput{Engine: eng, Pool: pool}, nil
}

// newProver 按配置选择完整证明后端
func newProver(options *engineconfig.EngineOptions, runner *process.Runner, logger log.Logger) (Prover, error) {
	switch options.Prover.Backend {
	case "", engineconfig.ProverBackendGnark:
		return NewGnarkProver(logger), nil
	case engineconfig.ProverBackendCommand:
		if options.Prover.Command == "" {
			return nil, fmt.Errorf("engine: prover backend %q requires prover_command", options.Prover.Backend)
		}
		return NewCommandProver(options.Prover.Command, options.Prover.Args, options.Prover.Timeout, runner, logger), nil
	case engineconfig.ProverBackendNone:
		if logger != nil {
			logger.Warn("未配置完整证明后端，Full/FullWithEvm 请求将失败")
		}
		return UnconfiguredProver{}, nil
	default:
		return nil, fmt.Errorf("engine: unknown prover backend %q", options.Prover.Backend)
	}
}
