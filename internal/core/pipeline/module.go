package pipeline

import (
	"go.uber.org/fx"

	logimpl "github.com/weisyn/coprocessor/internal/core/infrastructure/log"
	"github.com/weisyn/coprocessor/pkg/interfaces/config"
	"github.com/weisyn/coprocessor/pkg/interfaces/coprocessor"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// ModuleInput 流水线模块依赖
type ModuleInput struct {
	fx.In

	Provider  config.Provider
	Resolvers coprocessor.ResolverFactory
	Fetcher   coprocessor.Fetcher
	Engine    coprocessor.Engine
	Logger    log.Logger `optional:"true"`
}

// Module 返回流水线模块
func Module() fx.Option {
	return fx.Module("pipeline",
		fx.Provide(ProvidePipeline),
	)
}

// ProvidePipeline 装配证明流水线
func ProvidePipeline(input ModuleInput) *Pipeline {
	return New(input.Resolvers, input.Fetcher, input.Engine, input.Provider.GetPipeline(),
		logimpl.NewModuleLogger(input.Logger, "pipeline"))
}
