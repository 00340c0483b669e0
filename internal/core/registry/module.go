package registry

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	logimpl "github.com/weisyn/coprocessor/internal/core/infrastructure/log"
	storagemodule "github.com/weisyn/coprocessor/internal/core/infrastructure/storage"
	"github.com/weisyn/coprocessor/pkg/interfaces/config"
	"github.com/weisyn/coprocessor/pkg/interfaces/coprocessor"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// ModuleInput 注册表模块依赖
type ModuleInput struct {
	fx.In

	Lifecycle fx.Lifecycle
	Provider  config.Provider
	Logger    log.Logger     `optional:"true"`
	EventBus  event.EventBus `optional:"true"`
}

// ModuleOutput 注册表模块输出
type ModuleOutput struct {
	fx.Out

	Resolver coprocessor.Resolver
	Factory  coprocessor.ResolverFactory
	// Local 仅在 local 模式下非 nil
	Local *Local
}

// Module 返回注册表模块
func Module() fx.Option {
	return fx.Module("registry",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 按 registry.mode 选择注册表实现
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	logger := logimpl.NewModuleLogger(input.Logger, "registry")
	options := input.Provider.GetRegistry()

	var (
		resolver coprocessor.Resolver
		local    *Local
	)
	if options.IsEth() {
		caller, closeFn, err := dialEthClient(context.Background(), options.RPCURL)
		if err != nil {
			return ModuleOutput{}, fmt.Errorf("连接注册表RPC失败: %w", err)
		}
		input.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				closeFn()
				return nil
			},
		})
		resolver = NewEthClient(caller, options.ContractAddress, options.CallTimeout, logger)
		if logger != nil {
			logger.Infof("使用链上注册表: rpc=%s contract=%s", options.RPCURL, options.ContractAddress.Hex())
		}
	} else {
		store, err := storagemodule.OpenBadgerStore(input.Lifecycle, input.Provider, input.Logger)
		if err != nil {
			return ModuleOutput{}, fmt.Errorf("打开本地注册表存储失败: %w", err)
		}
		local = NewLocal(store, input.EventBus, logger)
		resolver = local
		if logger != nil {
			logger.Info("使用本地注册表")
		}
	}

	factory := NewClientFactory(resolver, options, nil, logger)
	input.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			factory.Close()
			return nil
		},
	})
	return ModuleOutput{Resolver: resolver, Factory: factory, Local: local}, nil
}
