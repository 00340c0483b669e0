package jobs

import (
	"go.uber.org/fx"

	logimpl "github.com/weisyn/coprocessor/internal/core/infrastructure/log"
	"github.com/weisyn/coprocessor/internal/core/pipeline"
	"github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/log"
)

// ModuleInput 任务模块依赖
type ModuleInput struct {
	fx.In

	Pipeline *pipeline.Pipeline
	Logger   log.Logger `optional:"true"`
}

// Module 返回任务模块
func Module() fx.Option {
	return fx.Module("jobs",
		fx.Provide(func(input ModuleInput) *Dispatcher {
			return NewDispatcher(input.Pipeline, logimpl.NewModuleLogger(input.Logger, "jobs"))
		}),
	)
}
